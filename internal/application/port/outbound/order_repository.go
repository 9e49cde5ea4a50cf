package outbound

import (
	"context"

	"github.com/skyops/skycourier/internal/domain/entity"
)

type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Order, error)

	// FindByAssignedDrone returns the single in-flight order referencing the
	// drone, or entity.ErrNotFound when the drone is between deliveries.
	FindByAssignedDrone(ctx context.Context, droneID string) (*entity.Order, error)

	List(ctx context.Context, status entity.OrderStatus) ([]entity.Order, error)

	// CreateWithEvent persists the order and its order-created outbox event
	// in one transaction.
	CreateWithEvent(ctx context.Context, order *entity.Order, payload, traceContext []byte) error

	// Assign moves Created -> Assigned, sets the drone reference and bumps
	// the version, guarded by version == expectedVersion. Returns
	// entity.ErrStalePrecondition when the guard fails.
	Assign(ctx context.Context, id, droneID string, expectedVersion int64) error

	// AdvanceStatus moves from -> to with a status guard and bumps the
	// version. The drone reference is cleared when to is Completed. Returns
	// entity.ErrStalePrecondition when another consumer already advanced.
	AdvanceStatus(ctx context.Context, id string, from, to entity.OrderStatus) error

	Delete(ctx context.Context, id string) error
}
