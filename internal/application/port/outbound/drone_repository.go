package outbound

import (
	"context"

	"github.com/skyops/skycourier/internal/domain/entity"
)

type DroneRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Drone, error)
	List(ctx context.Context, status entity.DroneStatus) ([]entity.Drone, error)
	ListActive(ctx context.Context) ([]entity.Drone, error)
	Create(ctx context.Context, drone *entity.Drone) error
	Delete(ctx context.Context, id string) error

	// Claim atomically moves Active -> Matched. Losing the race to another
	// matcher surfaces as entity.ErrStalePrecondition.
	Claim(ctx context.Context, id string) error

	// Release is the compensating update for a claim whose order assignment
	// failed: Matched -> Active.
	Release(ctx context.Context, id string) error

	// SetStatus moves from -> to guarded on the current status.
	SetStatus(ctx context.Context, id string, from, to entity.DroneStatus) error

	UpdateLocation(ctx context.Context, id string, location entity.GeoPoint) error
}
