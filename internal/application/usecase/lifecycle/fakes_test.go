package lifecycle

import (
	"context"

	"github.com/skyops/skycourier/internal/domain/entity"
)

// In-memory repositories with the record store's guard semantics. Only the
// paths the tracker exercises carry real behavior.

type fakeOrderRepo struct {
	orders map[string]*entity.Order

	advanceErr error
}

func newFakeOrderRepo(orders ...*entity.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: make(map[string]*entity.Order)}
	for _, o := range orders {
		cp := *o
		r.orders[o.ID] = &cp
	}
	return r
}

func (r *fakeOrderRepo) get(id string) *entity.Order {
	if o, ok := r.orders[id]; ok {
		cp := *o
		return &cp
	}
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id string) (*entity.Order, error) {
	if o := r.get(id); o != nil {
		return o, nil
	}
	return nil, entity.ErrNotFound
}

func (r *fakeOrderRepo) FindByAssignedDrone(_ context.Context, droneID string) (*entity.Order, error) {
	for _, o := range r.orders {
		if o.InFlight() && o.AssignedDrone == droneID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (r *fakeOrderRepo) List(_ context.Context, status entity.OrderStatus) ([]entity.Order, error) {
	var out []entity.Order
	for _, o := range r.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) CreateWithEvent(_ context.Context, order *entity.Order, _, _ []byte) error {
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) Assign(_ context.Context, id, droneID string, expectedVersion int64) error {
	o, ok := r.orders[id]
	if !ok || o.Version != expectedVersion {
		return entity.ErrStalePrecondition
	}
	o.Status = entity.OrderStatusAssigned
	o.AssignedDrone = droneID
	o.Version++
	return nil
}

func (r *fakeOrderRepo) AdvanceStatus(_ context.Context, id string, from, to entity.OrderStatus) error {
	if r.advanceErr != nil {
		return r.advanceErr
	}
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return entity.ErrStalePrecondition
	}
	o.Status = to
	o.Version++
	if to == entity.OrderStatusCompleted {
		o.AssignedDrone = ""
	}
	return nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, id string) error {
	delete(r.orders, id)
	return nil
}

type fakeDroneRepo struct {
	drones map[string]*entity.Drone

	setStatusHook func(id string, from, to entity.DroneStatus) error
}

func newFakeDroneRepo(drones ...*entity.Drone) *fakeDroneRepo {
	r := &fakeDroneRepo{drones: make(map[string]*entity.Drone)}
	for _, d := range drones {
		cp := *d
		r.drones[d.ID] = &cp
	}
	return r
}

func (r *fakeDroneRepo) get(id string) *entity.Drone {
	if d, ok := r.drones[id]; ok {
		cp := *d
		return &cp
	}
	return nil
}

func (r *fakeDroneRepo) FindByID(_ context.Context, id string) (*entity.Drone, error) {
	if d := r.get(id); d != nil {
		return d, nil
	}
	return nil, entity.ErrNotFound
}

func (r *fakeDroneRepo) List(_ context.Context, status entity.DroneStatus) ([]entity.Drone, error) {
	var out []entity.Drone
	for _, d := range r.drones {
		if status == "" || d.Status == status {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDroneRepo) ListActive(ctx context.Context) ([]entity.Drone, error) {
	return r.List(ctx, entity.DroneStatusActive)
}

func (r *fakeDroneRepo) Create(_ context.Context, drone *entity.Drone) error {
	cp := *drone
	r.drones[drone.ID] = &cp
	return nil
}

func (r *fakeDroneRepo) Delete(_ context.Context, id string) error {
	delete(r.drones, id)
	return nil
}

func (r *fakeDroneRepo) Claim(ctx context.Context, id string) error {
	return r.SetStatus(ctx, id, entity.DroneStatusActive, entity.DroneStatusMatched)
}

func (r *fakeDroneRepo) Release(ctx context.Context, id string) error {
	return r.SetStatus(ctx, id, entity.DroneStatusMatched, entity.DroneStatusActive)
}

func (r *fakeDroneRepo) SetStatus(_ context.Context, id string, from, to entity.DroneStatus) error {
	if r.setStatusHook != nil {
		if err := r.setStatusHook(id, from, to); err != nil {
			return err
		}
	}
	d, ok := r.drones[id]
	if !ok || d.Status != from {
		return entity.ErrStalePrecondition
	}
	d.Status = to
	return nil
}

func (r *fakeDroneRepo) UpdateLocation(_ context.Context, id string, location entity.GeoPoint) error {
	d, ok := r.drones[id]
	if !ok {
		return entity.ErrNotFound
	}
	d.Location = location
	return nil
}

type fakePlaceRepo struct {
	stores map[string]*entity.Store
	users  map[string]*entity.User
}

func newFakePlaceRepo() *fakePlaceRepo {
	return &fakePlaceRepo{
		stores: make(map[string]*entity.Store),
		users:  make(map[string]*entity.User),
	}
}

func (r *fakePlaceRepo) FindStore(_ context.Context, id string) (*entity.Store, error) {
	if s, ok := r.stores[id]; ok {
		return s, nil
	}
	return nil, entity.ErrNotFound
}

func (r *fakePlaceRepo) FindUser(_ context.Context, id string) (*entity.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, entity.ErrNotFound
}

func (r *fakePlaceRepo) CreateStore(_ context.Context, store *entity.Store) error {
	r.stores[store.ID] = store
	return nil
}

func (r *fakePlaceRepo) CreateUser(_ context.Context, user *entity.User) error {
	r.users[user.ID] = user
	return nil
}
