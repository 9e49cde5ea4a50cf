package matching

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/skyops/skycourier/internal/application/port/outbound"
	"github.com/skyops/skycourier/internal/domain/entity"
	"github.com/skyops/skycourier/internal/domain/geo"
	"github.com/skyops/skycourier/pkg/logger"
)

// UseCaseImpl turns one order-created event into an at-most-once order->drone
// assignment. All coordination with concurrent matchers happens through
// conditional writes against the record store; there is no in-process shared
// state.
type UseCaseImpl struct {
	Orders   outbound.OrderRepository
	Drones   outbound.DroneRepository
	Places   outbound.PlaceRepository
	RadiusKm float64
	Log      logger.Logger

	// pick selects an index in [0,n); overridable in tests.
	pick func(n int) int
}

func NewUseCase(
	orders outbound.OrderRepository,
	drones outbound.DroneRepository,
	places outbound.PlaceRepository,
	radiusKm float64,
	log logger.Logger,
) *UseCaseImpl {
	if radiusKm <= 0 {
		radiusKm = geo.EarthRadiusKm
	}
	return &UseCaseImpl{
		Orders:   orders,
		Drones:   drones,
		Places:   places,
		RadiusKm: radiusKm,
		Log:      log,
		pick:     rand.Intn,
	}
}

func (uc *UseCaseImpl) Execute(ctx context.Context, ev Event) (Outcome, error) {
	order, err := uc.Orders.FindByID(ctx, ev.OrderID)
	if errors.Is(err, entity.ErrNotFound) {
		uc.Log.Info(ctx, "order no longer exists, discarding event",
			logger.String("order_id", ev.OrderID),
		)
		return Ack, nil
	}
	if err != nil {
		return RetryLater, fmt.Errorf("fetch order: %w", err)
	}

	// Idempotence guard: a version mismatch means the order was mutated since
	// the event was produced (already assigned, cancelled, replayed event).
	if order.Version != ev.ExpectedVersion {
		uc.Log.Info(ctx, "order version mismatch, discarding event",
			logger.String("order_id", ev.OrderID),
			logger.Int("expected_version", int(ev.ExpectedVersion)),
			logger.Int("current_version", int(order.Version)),
		)
		return Ack, nil
	}

	storeLocation, err := uc.resolveStoreLocation(ctx, ev)
	if errors.Is(err, entity.ErrNotFound) {
		// A deleted store is permanent; redelivery can never succeed.
		uc.Log.Warn(ctx, "store no longer exists, discarding event",
			logger.String("order_id", ev.OrderID),
			logger.String("store_id", ev.StoreID),
		)
		return Ack, nil
	}
	if err != nil {
		return RetryLater, err
	}

	candidates, err := uc.Drones.ListActive(ctx)
	if err != nil {
		return RetryLater, fmt.Errorf("list active drones: %w", err)
	}
	if len(candidates) == 0 {
		uc.Log.Info(ctx, "no active drones, leaving event for redelivery",
			logger.String("order_id", ev.OrderID),
		)
		return RetryLater, nil
	}

	droneID, outcome, err := uc.claimNearest(ctx, ev.OrderID, candidates, storeLocation)
	if err != nil || outcome == RetryLater {
		return outcome, err
	}

	if err := uc.Orders.Assign(ctx, ev.OrderID, droneID, ev.ExpectedVersion); err != nil {
		// The drone is claimed but the order slipped away; release before
		// returning, whatever the error was. Stranding a drone in Matched
		// with no order is the one failure mode with no self-healing path.
		uc.release(ctx, droneID)

		if errors.Is(err, entity.ErrStalePrecondition) {
			uc.Log.Info(ctx, "order mutated during matching, discarding event",
				logger.String("order_id", ev.OrderID),
			)
			return Ack, nil
		}
		return RetryLater, fmt.Errorf("assign order: %w", err)
	}

	uc.Log.Info(ctx, "order assigned",
		logger.String("order_id", ev.OrderID),
		logger.String("drone_id", droneID),
	)
	return Ack, nil
}

func (uc *UseCaseImpl) resolveStoreLocation(ctx context.Context, ev Event) (entity.GeoPoint, error) {
	if ev.StoreLocation != nil {
		return *ev.StoreLocation, nil
	}
	store, err := uc.Places.FindStore(ctx, ev.StoreID)
	if err != nil {
		return entity.GeoPoint{}, fmt.Errorf("resolve store location: %w", err)
	}
	return store.Location, nil
}

// claimNearest ranks candidates by haversine distance to the store and tries
// to CAS-claim one, removing claim losers from the set until a claim sticks
// or no candidate remains.
func (uc *UseCaseImpl) claimNearest(
	ctx context.Context,
	orderID string,
	candidates []entity.Drone,
	store entity.GeoPoint,
) (string, Outcome, error) {
	for len(candidates) > 0 {
		idx := uc.nearestIndex(candidates, store)
		droneID := candidates[idx].ID

		err := uc.Drones.Claim(ctx, droneID)
		if err == nil {
			return droneID, Ack, nil
		}
		if errors.Is(err, entity.ErrStalePrecondition) {
			// Another matcher got there first; drop the drone and rerank.
			uc.Log.Debug(ctx, "lost drone claim race",
				logger.String("order_id", orderID),
				logger.String("drone_id", droneID),
			)
			candidates = append(candidates[:idx], candidates[idx+1:]...)
			continue
		}
		return "", RetryLater, fmt.Errorf("claim drone %s: %w", droneID, err)
	}

	uc.Log.Info(ctx, "all candidate drones claimed concurrently, leaving event for redelivery",
		logger.String("order_id", orderID),
	)
	return "", RetryLater, nil
}

// nearestIndex returns the index of the candidate nearest to the store,
// choosing uniformly at random among exact distance ties so co-located drones
// (a freshly onboarded depot fleet) share the load.
func (uc *UseCaseImpl) nearestIndex(candidates []entity.Drone, store entity.GeoPoint) int {
	minDistance := geo.Distance(candidates[0].Location, store, uc.RadiusKm)
	tied := []int{0}

	for i := 1; i < len(candidates); i++ {
		d := geo.Distance(candidates[i].Location, store, uc.RadiusKm)
		switch {
		case d < minDistance:
			minDistance = d
			tied = tied[:0]
			tied = append(tied, i)
		case d == minDistance:
			tied = append(tied, i)
		}
	}

	return tied[uc.pick(len(tied))]
}

func (uc *UseCaseImpl) release(ctx context.Context, droneID string) {
	if err := uc.Drones.Release(ctx, droneID); err != nil {
		uc.Log.Error(ctx, "failed to release claimed drone, manual intervention may be required",
			logger.String("drone_id", droneID),
			logger.WithError(err),
		)
	}
}
