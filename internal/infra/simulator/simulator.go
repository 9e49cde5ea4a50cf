// Package simulator generates drone movement for environments without real
// hardware. It is a stateless producer: each tick reads the fleet's last
// known positions from the record store, computes one movement step and
// writes position reports to the telemetry stream. It never mutates records
// itself; the tracker ingests its reports like any other telemetry.
package simulator

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/skyops/skycourier/internal/application/port/outbound"
	"github.com/skyops/skycourier/internal/domain/entity"
	"github.com/skyops/skycourier/pkg/logger"
)

type Simulator struct {
	Drones    outbound.DroneRepository
	Orders    outbound.OrderRepository
	Places    outbound.PlaceRepository
	Publisher outbound.TelemetryPublisher
	Tick      time.Duration
	JitterDeg float64
	StepDeg   float64
	Log       logger.Logger
}

func New(
	drones outbound.DroneRepository,
	orders outbound.OrderRepository,
	places outbound.PlaceRepository,
	publisher outbound.TelemetryPublisher,
	tick time.Duration,
	jitterDeg, stepDeg float64,
	log logger.Logger,
) *Simulator {
	return &Simulator{
		Drones:    drones,
		Orders:    orders,
		Places:    places,
		Publisher: publisher,
		Tick:      tick,
		JitterDeg: jitterDeg,
		StepDeg:   stepDeg,
		Log:       log,
	}
}

func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Simulator) tick(ctx context.Context) {
	drones, err := s.Drones.List(ctx, "")
	if err != nil {
		s.Log.Error(ctx, "failed to list drones", logger.WithError(err))
		return
	}

	for _, drone := range drones {
		next := s.nextPosition(ctx, drone)
		if err := s.Publisher.Publish(ctx, drone.ID, next); err != nil {
			s.Log.Error(ctx, "failed to publish telemetry",
				logger.String("drone_id", drone.ID),
				logger.WithError(err),
			)
		}
	}
}

// nextPosition moves a drone one step: idle drones wander around their
// current position, drones on a delivery head for the waypoint their status
// implies.
func (s *Simulator) nextPosition(ctx context.Context, drone entity.Drone) entity.GeoPoint {
	switch drone.Status {
	case entity.DroneStatusMatched:
		if target, ok := s.storeWaypoint(ctx, drone.ID); ok {
			return stepToward(drone.Location, target, s.StepDeg)
		}
	case entity.DroneStatusPickupCompleted:
		if target, ok := s.userWaypoint(ctx, drone.ID); ok {
			return stepToward(drone.Location, target, s.StepDeg)
		}
	}
	return jitter(drone.Location, s.JitterDeg)
}

func (s *Simulator) storeWaypoint(ctx context.Context, droneID string) (entity.GeoPoint, bool) {
	order, err := s.Orders.FindByAssignedDrone(ctx, droneID)
	if err != nil {
		s.logWaypointMiss(ctx, droneID, err)
		return entity.GeoPoint{}, false
	}
	store, err := s.Places.FindStore(ctx, order.StoreID)
	if err != nil {
		s.logWaypointMiss(ctx, droneID, err)
		return entity.GeoPoint{}, false
	}
	return store.Location, true
}

func (s *Simulator) userWaypoint(ctx context.Context, droneID string) (entity.GeoPoint, bool) {
	order, err := s.Orders.FindByAssignedDrone(ctx, droneID)
	if err != nil {
		s.logWaypointMiss(ctx, droneID, err)
		return entity.GeoPoint{}, false
	}
	user, err := s.Places.FindUser(ctx, order.UserID)
	if err != nil {
		s.logWaypointMiss(ctx, droneID, err)
		return entity.GeoPoint{}, false
	}
	return user.Location, true
}

func (s *Simulator) logWaypointMiss(ctx context.Context, droneID string, err error) {
	if errors.Is(err, entity.ErrNotFound) {
		// Races with the tracker finishing the delivery are expected.
		return
	}
	s.Log.Warn(ctx, "failed to resolve waypoint",
		logger.String("drone_id", droneID),
		logger.WithError(err),
	)
}

// stepToward moves at most step degrees per axis toward the target, landing
// exactly on it when close enough.
func stepToward(from, to entity.GeoPoint, step float64) entity.GeoPoint {
	return entity.GeoPoint{
		Lat: approach(from.Lat, to.Lat, step),
		Lon: approach(from.Lon, to.Lon, step),
	}
}

func approach(from, to, step float64) float64 {
	delta := to - from
	if delta > step {
		return from + step
	}
	if delta < -step {
		return from - step
	}
	return to
}

func jitter(p entity.GeoPoint, amount float64) entity.GeoPoint {
	next := entity.GeoPoint{
		Lat: p.Lat + (rand.Float64()*2-1)*amount,
		Lon: p.Lon + (rand.Float64()*2-1)*amount,
	}
	if !next.Valid() {
		return p
	}
	return next
}
