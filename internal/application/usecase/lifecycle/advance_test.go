package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skyops/skycourier/internal/domain/entity"
	"github.com/skyops/skycourier/pkg/logger"
)

var (
	storeLocation = entity.GeoPoint{Lat: 0, Lon: 0}
	userLocation  = entity.GeoPoint{Lat: 1, Lon: 1}
	midway        = entity.GeoPoint{Lat: 0.5, Lon: 0.5}
)

func newTestPlaces() *fakePlaceRepo {
	places := newFakePlaceRepo()
	places.CreateStore(context.Background(), &entity.Store{ID: "store-1", Location: storeLocation})
	places.CreateUser(context.Background(), &entity.User{ID: "user-1", Location: userLocation})
	return places
}

func newAssignedOrder(status entity.OrderStatus) *entity.Order {
	return &entity.Order{
		ID:            "order-1",
		StoreID:       "store-1",
		UserID:        "user-1",
		Status:        status,
		AssignedDrone: "drone-1",
		Version:       2,
	}
}

func newTestUseCase(orders *fakeOrderRepo, drones *fakeDroneRepo, places *fakePlaceRepo) *UseCaseImpl {
	// Meter radius with 5 m arrival thresholds.
	return NewUseCase(orders, drones, places, 0, 5, 5, logger.NewNop())
}

func record(p entity.GeoPoint) Record {
	return Record{DroneID: "drone-1", Location: p}
}

func TestExecute_PersistsTelemetry(t *testing.T) {
	drones := newFakeDroneRepo(&entity.Drone{ID: "drone-1", Status: entity.DroneStatusActive})
	uc := newTestUseCase(newFakeOrderRepo(), drones, newTestPlaces())

	tr, err := uc.Execute(context.Background(), record(midway))

	assert.Nil(t, err)
	assert.False(t, tr.Applied())
	assert.Equal(t, midway, drones.get("drone-1").Location)
}

func TestExecute_UnknownDrone_IsNoOp(t *testing.T) {
	uc := newTestUseCase(newFakeOrderRepo(), newFakeDroneRepo(), newTestPlaces())

	tr, err := uc.Execute(context.Background(), record(midway))

	assert.Nil(t, err)
	assert.False(t, tr.Applied())
}

func TestExecute_AssignedFarFromStore_IsNoOp(t *testing.T) {
	orders := newFakeOrderRepo(newAssignedOrder(entity.OrderStatusAssigned))
	drones := newFakeDroneRepo(&entity.Drone{ID: "drone-1", Status: entity.DroneStatusMatched})
	uc := newTestUseCase(orders, drones, newTestPlaces())

	tr, err := uc.Execute(context.Background(), record(midway))

	assert.Nil(t, err)
	assert.False(t, tr.Applied())
	assert.Equal(t, entity.OrderStatusAssigned, orders.get("order-1").Status)
	assert.Equal(t, entity.DroneStatusMatched, drones.get("drone-1").Status)
}

func TestExecute_ArrivalAtStore_CompletesPickup(t *testing.T) {
	orders := newFakeOrderRepo(newAssignedOrder(entity.OrderStatusAssigned))
	drones := newFakeDroneRepo(&entity.Drone{ID: "drone-1", Status: entity.DroneStatusMatched})
	uc := newTestUseCase(orders, drones, newTestPlaces())

	tr, err := uc.Execute(context.Background(), record(storeLocation))

	assert.Nil(t, err)
	assert.Equal(t, Transition{From: entity.OrderStatusAssigned, To: entity.OrderStatusPickupCompleted}, tr)

	order := orders.get("order-1")
	assert.Equal(t, entity.OrderStatusPickupCompleted, order.Status)
	assert.Equal(t, int64(3), order.Version)
	assert.Equal(t, entity.DroneStatusPickupCompleted, drones.get("drone-1").Status)
}

func TestExecute_ExactlyAtThreshold_IsNoOp(t *testing.T) {
	orders := newFakeOrderRepo(newAssignedOrder(entity.OrderStatusAssigned))
	drones := newFakeDroneRepo(&entity.Drone{ID: "drone-1", Status: entity.DroneStatusMatched})
	uc := newTestUseCase(orders, drones, newTestPlaces())

	// Roughly 5.0 m north of the store; the arrival check is strictly
	// less-than, so this must not advance.
	almostThere := entity.GeoPoint{Lat: 0.000045, Lon: 0}

	tr, err := uc.Execute(context.Background(), record(almostThere))

	assert.Nil(t, err)
	assert.False(t, tr.Applied())
	assert.Equal(t, entity.OrderStatusAssigned, orders.get("order-1").Status)
}

func TestExecute_ArrivalAtUser_CompletesDropoff(t *testing.T) {
	orders := newFakeOrderRepo(newAssignedOrder(entity.OrderStatusPickupCompleted))
	drones := newFakeDroneRepo(&entity.Drone{ID: "drone-1", Status: entity.DroneStatusPickupCompleted})
	uc := newTestUseCase(orders, drones, newTestPlaces())

	tr, err := uc.Execute(context.Background(), record(userLocation))

	assert.Nil(t, err)
	assert.Equal(t, Transition{From: entity.OrderStatusPickupCompleted, To: entity.OrderStatusDropoffCompleted}, tr)

	order := orders.get("order-1")
	assert.Equal(t, entity.OrderStatusDropoffCompleted, order.Status)
	// The drone stays in PickupCompleted until the order completes.
	assert.Equal(t, entity.DroneStatusPickupCompleted, drones.get("drone-1").Status)
}

func TestExecute_AfterDropoff_CompletesAndFreesDrone(t *testing.T) {
	orders := newFakeOrderRepo(newAssignedOrder(entity.OrderStatusDropoffCompleted))
	drones := newFakeDroneRepo(&entity.Drone{ID: "drone-1", Status: entity.DroneStatusPickupCompleted})
	uc := newTestUseCase(orders, drones, newTestPlaces())

	// Completion happens on the next report wherever the drone is.
	tr, err := uc.Execute(context.Background(), record(midway))

	assert.Nil(t, err)
	assert.Equal(t, Transition{From: entity.OrderStatusDropoffCompleted, To: entity.OrderStatusCompleted}, tr)

	order := orders.get("order-1")
	assert.Equal(t, entity.OrderStatusCompleted, order.Status)
	assert.Empty(t, order.AssignedDrone)
	assert.Equal(t, entity.DroneStatusActive, drones.get("drone-1").Status)
}

func TestExecute_FullDeliveryProgression(t *testing.T) {
	orders := newFakeOrderRepo(newAssignedOrder(entity.OrderStatusAssigned))
	drones := newFakeDroneRepo(&entity.Drone{ID: "drone-1", Status: entity.DroneStatusMatched})
	uc := newTestUseCase(orders, drones, newTestPlaces())

	ctx := context.Background()

	steps := []struct {
		at     entity.GeoPoint
		status entity.OrderStatus
	}{
		{midway, entity.OrderStatusAssigned},
		{storeLocation, entity.OrderStatusPickupCompleted},
		{midway, entity.OrderStatusPickupCompleted},
		{userLocation, entity.OrderStatusDropoffCompleted},
		{userLocation, entity.OrderStatusCompleted},
	}

	for _, step := range steps {
		_, err := uc.Execute(ctx, record(step.at))
		assert.Nil(t, err)
		assert.Equal(t, step.status, orders.get("order-1").Status)
	}

	// Version: 2 at assignment plus one per applied transition.
	assert.Equal(t, int64(5), orders.get("order-1").Version)
	assert.Equal(t, entity.DroneStatusActive, drones.get("drone-1").Status)

	// Once completed, further reports only update the location.
	tr, err := uc.Execute(ctx, record(userLocation))
	assert.Nil(t, err)
	assert.False(t, tr.Applied())
}

func TestExecute_LaggingDrone_HealedEnRouteToUser(t *testing.T) {
	// The order advanced to PickupCompleted but the drone write was lost, so
	// the drone is still Matched. The next report must re-sync it.
	orders := newFakeOrderRepo(newAssignedOrder(entity.OrderStatusPickupCompleted))
	drones := newFakeDroneRepo(&entity.Drone{ID: "drone-1", Status: entity.DroneStatusMatched})
	uc := newTestUseCase(orders, drones, newTestPlaces())

	tr, err := uc.Execute(context.Background(), record(midway))

	assert.Nil(t, err)
	assert.False(t, tr.Applied())
	assert.Equal(t, entity.OrderStatusPickupCompleted, orders.get("order-1").Status)
	assert.Equal(t, entity.DroneStatusPickupCompleted, drones.get("drone-1").Status)
}

func TestExecute_Completion_ReleasesLaggingDrone(t *testing.T) {
	// Worst case: the drone missed both in-flight status writes and is still
	// Matched when the order completes. The release must still free it.
	orders := newFakeOrderRepo(newAssignedOrder(entity.OrderStatusDropoffCompleted))
	drones := newFakeDroneRepo(&entity.Drone{ID: "drone-1", Status: entity.DroneStatusMatched})
	uc := newTestUseCase(orders, drones, newTestPlaces())

	tr, err := uc.Execute(context.Background(), record(midway))

	assert.Nil(t, err)
	assert.Equal(t, Transition{From: entity.OrderStatusDropoffCompleted, To: entity.OrderStatusCompleted}, tr)
	assert.Equal(t, entity.OrderStatusCompleted, orders.get("order-1").Status)
	assert.Equal(t, entity.DroneStatusActive, drones.get("drone-1").Status)
}

func TestExecute_TransientDroneWriteFailure_RecoversOnRedelivery(t *testing.T) {
	orders := newFakeOrderRepo(newAssignedOrder(entity.OrderStatusAssigned))
	drones := newFakeDroneRepo(&entity.Drone{ID: "drone-1", Status: entity.DroneStatusMatched})

	// The pickup-step drone write fails once after the order transition has
	// already landed.
	failures := 0
	drones.setStatusHook = func(string, entity.DroneStatus, entity.DroneStatus) error {
		if failures == 0 {
			failures++
			return errors.New("write timeout")
		}
		return nil
	}

	uc := newTestUseCase(orders, drones, newTestPlaces())
	ctx := context.Background()

	_, err := uc.Execute(ctx, record(storeLocation))
	assert.Error(t, err)
	assert.Equal(t, entity.OrderStatusPickupCompleted, orders.get("order-1").Status)
	assert.Equal(t, entity.DroneStatusMatched, drones.get("drone-1").Status)

	// The rest of the delivery proceeds on redelivered reports; the drone
	// must not stay stranded in Matched.
	for _, at := range []entity.GeoPoint{midway, userLocation, userLocation} {
		_, err := uc.Execute(ctx, record(at))
		assert.Nil(t, err)
	}

	assert.Equal(t, entity.OrderStatusCompleted, orders.get("order-1").Status)
	assert.Equal(t, entity.DroneStatusActive, drones.get("drone-1").Status)
}

func TestExecute_StaleGuard_IsBenign(t *testing.T) {
	orders := newFakeOrderRepo(newAssignedOrder(entity.OrderStatusAssigned))
	orders.advanceErr = entity.ErrStalePrecondition

	drones := newFakeDroneRepo(&entity.Drone{ID: "drone-1", Status: entity.DroneStatusMatched})
	uc := newTestUseCase(orders, drones, newTestPlaces())

	tr, err := uc.Execute(context.Background(), record(storeLocation))

	assert.Nil(t, err)
	assert.False(t, tr.Applied())
	// The drone must not advance when the order write lost its guard.
	assert.Equal(t, entity.DroneStatusMatched, drones.get("drone-1").Status)
}

func TestExecute_AdvanceFailure_ReturnsError(t *testing.T) {
	orders := newFakeOrderRepo(newAssignedOrder(entity.OrderStatusAssigned))
	orders.advanceErr = errors.New("write timeout")

	drones := newFakeDroneRepo(&entity.Drone{ID: "drone-1", Status: entity.DroneStatusMatched})
	uc := newTestUseCase(orders, drones, newTestPlaces())

	_, err := uc.Execute(context.Background(), record(storeLocation))

	assert.Error(t, err)
}
