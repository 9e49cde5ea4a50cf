package outbound

import (
	"context"

	"github.com/skyops/skycourier/internal/domain/entity"
)

// PlaceRepository serves the read-only reference entities supplying delivery
// waypoints.
type PlaceRepository interface {
	FindStore(ctx context.Context, id string) (*entity.Store, error)
	FindUser(ctx context.Context, id string) (*entity.User, error)
	CreateStore(ctx context.Context, store *entity.Store) error
	CreateUser(ctx context.Context, user *entity.User) error
}
