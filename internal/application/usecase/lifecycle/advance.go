package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/skyops/skycourier/internal/application/port/outbound"
	"github.com/skyops/skycourier/internal/domain/entity"
	"github.com/skyops/skycourier/internal/domain/geo"
	"github.com/skyops/skycourier/pkg/logger"
)

// Transition reports the order status change a record produced; zero when
// the record was a no-op.
type Transition struct {
	From entity.OrderStatus
	To   entity.OrderStatus
}

func (t Transition) Applied() bool { return t.To != "" }

type UseCase interface {
	Execute(ctx context.Context, rec Record) (Transition, error)
}

// UseCaseImpl advances the delivery state machine as drone position reports
// arrive. Every transition is a status-guarded conditional write, so a
// redelivered or out-of-order record for the same drone can never double-apply
// a step; a failed guard is a benign no-op.
type UseCaseImpl struct {
	Orders           outbound.OrderRepository
	Drones           outbound.DroneRepository
	Places           outbound.PlaceRepository
	RadiusM          float64
	PickupProximity  float64
	DropoffProximity float64
	Log              logger.Logger
}

func NewUseCase(
	orders outbound.OrderRepository,
	drones outbound.DroneRepository,
	places outbound.PlaceRepository,
	radiusM, pickupProximity, dropoffProximity float64,
	log logger.Logger,
) *UseCaseImpl {
	if radiusM <= 0 {
		radiusM = geo.EarthRadiusM
	}
	return &UseCaseImpl{
		Orders:           orders,
		Drones:           drones,
		Places:           places,
		RadiusM:          radiusM,
		PickupProximity:  pickupProximity,
		DropoffProximity: dropoffProximity,
		Log:              log,
	}
}

func (uc *UseCaseImpl) Execute(ctx context.Context, rec Record) (Transition, error) {
	// Telemetry ingestion: the report is the source of truth for the drone's
	// position, persisted whether or not the drone is on a delivery.
	if err := uc.Drones.UpdateLocation(ctx, rec.DroneID, rec.Location); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			uc.Log.Warn(ctx, "telemetry for unknown drone",
				logger.String("drone_id", rec.DroneID),
			)
			return Transition{}, nil
		}
		return Transition{}, fmt.Errorf("update drone location: %w", err)
	}

	order, err := uc.Orders.FindByAssignedDrone(ctx, rec.DroneID)
	if errors.Is(err, entity.ErrNotFound) {
		// Drone unassigned or between deliveries.
		return Transition{}, nil
	}
	if err != nil {
		return Transition{}, fmt.Errorf("find assigned order: %w", err)
	}
	if order.Terminal() {
		return Transition{}, nil
	}

	switch order.Status {
	case entity.OrderStatusAssigned:
		return uc.checkPickup(ctx, order, rec)
	case entity.OrderStatusPickupCompleted:
		return uc.checkDropoff(ctx, order, rec)
	case entity.OrderStatusDropoffCompleted:
		return uc.complete(ctx, order, rec)
	}
	return Transition{}, nil
}

func (uc *UseCaseImpl) checkPickup(ctx context.Context, order *entity.Order, rec Record) (Transition, error) {
	store, err := uc.Places.FindStore(ctx, order.StoreID)
	if err != nil {
		return Transition{}, fmt.Errorf("resolve store: %w", err)
	}

	distanceToStore := geo.Distance(rec.Location, store.Location, uc.RadiusM)
	if distanceToStore >= uc.PickupProximity {
		uc.Log.Debug(ctx, "en route to store",
			logger.String("order_id", order.ID),
			logger.Float64("distance", distanceToStore),
		)
		return Transition{}, nil
	}

	tr, err := uc.advanceOrder(ctx, order, entity.OrderStatusPickupCompleted)
	if err != nil || !tr.Applied() {
		return tr, err
	}
	return tr, uc.advanceDrone(ctx, rec.DroneID, entity.DroneStatusMatched, entity.DroneStatusPickupCompleted)
}

func (uc *UseCaseImpl) checkDropoff(ctx context.Context, order *entity.Order, rec Record) (Transition, error) {
	// The drone write can fail after the order transition lands, leaving the
	// drone a step behind the order. Re-apply it here; the status guard makes
	// this a no-op when the drone is already current.
	if err := uc.advanceDrone(ctx, rec.DroneID, entity.DroneStatusMatched, entity.DroneStatusPickupCompleted); err != nil {
		return Transition{}, err
	}

	user, err := uc.Places.FindUser(ctx, order.UserID)
	if err != nil {
		return Transition{}, fmt.Errorf("resolve user: %w", err)
	}

	distanceToUser := geo.Distance(rec.Location, user.Location, uc.RadiusM)
	if distanceToUser >= uc.DropoffProximity {
		uc.Log.Debug(ctx, "en route to user",
			logger.String("order_id", order.ID),
			logger.Float64("distance", distanceToUser),
		)
		return Transition{}, nil
	}

	return uc.advanceOrder(ctx, order, entity.OrderStatusDropoffCompleted)
}

// complete finishes the delivery unconditionally on the next report after
// dropoff and returns the drone to the active pool.
func (uc *UseCaseImpl) complete(ctx context.Context, order *entity.Order, rec Record) (Transition, error) {
	tr, err := uc.advanceOrder(ctx, order, entity.OrderStatusCompleted)
	if err != nil || !tr.Applied() {
		return tr, err
	}
	return tr, uc.releaseDrone(ctx, rec.DroneID)
}

// releaseDrone returns the drone to the active pool at the end of a delivery.
// A drone whose pickup-step write was lost is still Matched here, so the
// release accepts either in-flight status.
func (uc *UseCaseImpl) releaseDrone(ctx context.Context, droneID string) error {
	err := uc.Drones.SetStatus(ctx, droneID, entity.DroneStatusPickupCompleted, entity.DroneStatusActive)
	if errors.Is(err, entity.ErrStalePrecondition) {
		err = uc.Drones.SetStatus(ctx, droneID, entity.DroneStatusMatched, entity.DroneStatusActive)
		if errors.Is(err, entity.ErrStalePrecondition) {
			return nil
		}
	}
	if err != nil {
		return fmt.Errorf("release drone %s: %w", droneID, err)
	}
	return nil
}

func (uc *UseCaseImpl) advanceOrder(ctx context.Context, order *entity.Order, to entity.OrderStatus) (Transition, error) {
	err := uc.Orders.AdvanceStatus(ctx, order.ID, order.Status, to)
	if errors.Is(err, entity.ErrStalePrecondition) {
		uc.Log.Debug(ctx, "order already advanced by another record",
			logger.String("order_id", order.ID),
			logger.String("status", string(to)),
		)
		return Transition{}, nil
	}
	if err != nil {
		return Transition{}, fmt.Errorf("advance order %s to %s: %w", order.ID, to, err)
	}

	uc.Log.Info(ctx, "order advanced",
		logger.String("order_id", order.ID),
		logger.String("from", string(order.Status)),
		logger.String("to", string(to)),
	)
	return Transition{From: order.Status, To: to}, nil
}

func (uc *UseCaseImpl) advanceDrone(ctx context.Context, droneID string, from, to entity.DroneStatus) error {
	err := uc.Drones.SetStatus(ctx, droneID, from, to)
	if errors.Is(err, entity.ErrStalePrecondition) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("advance drone %s to %s: %w", droneID, to, err)
	}
	return nil
}
