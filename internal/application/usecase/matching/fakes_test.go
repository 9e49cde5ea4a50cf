package matching

import (
	"context"
	"sync"

	"github.com/skyops/skycourier/internal/domain/entity"
)

// In-memory repositories mirroring the record store's conditional-write
// semantics. Hooks let tests inject races and failures at the exact write
// the engine is performing.

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*entity.Order

	findErr    error
	assignHook func() error
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
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		cp := *o
		return &cp
	}
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id string) (*entity.Order, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	o := r.get(id)
	if o == nil {
		return nil, entity.ErrNotFound
	}
	return o, nil
}

func (r *fakeOrderRepo) FindByAssignedDrone(_ context.Context, droneID string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.InFlight() && o.AssignedDrone == droneID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (r *fakeOrderRepo) List(_ context.Context, status entity.OrderStatus) ([]entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Order
	for _, o := range r.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) CreateWithEvent(_ context.Context, order *entity.Order, _, _ []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) Assign(_ context.Context, id, droneID string, expectedVersion int64) error {
	if r.assignHook != nil {
		if err := r.assignHook(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
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
	r.mu.Lock()
	defer r.mu.Unlock()
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
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

type fakeDroneRepo struct {
	mu     sync.Mutex
	ids    []string
	drones map[string]*entity.Drone

	listErr   error
	claimHook func(id string) error
	released  []string
}

func newFakeDroneRepo(drones ...*entity.Drone) *fakeDroneRepo {
	r := &fakeDroneRepo{drones: make(map[string]*entity.Drone)}
	for _, d := range drones {
		cp := *d
		r.ids = append(r.ids, d.ID)
		r.drones[d.ID] = &cp
	}
	return r
}

func (r *fakeDroneRepo) get(id string) *entity.Drone {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.drones[id]; ok {
		cp := *d
		return &cp
	}
	return nil
}

func (r *fakeDroneRepo) FindByID(_ context.Context, id string) (*entity.Drone, error) {
	d := r.get(id)
	if d == nil {
		return nil, entity.ErrNotFound
	}
	return d, nil
}

func (r *fakeDroneRepo) List(_ context.Context, status entity.DroneStatus) ([]entity.Drone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Drone
	for _, id := range r.ids {
		if d := r.drones[id]; status == "" || d.Status == status {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDroneRepo) ListActive(ctx context.Context) ([]entity.Drone, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.List(ctx, entity.DroneStatusActive)
}

func (r *fakeDroneRepo) Create(_ context.Context, drone *entity.Drone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *drone
	r.ids = append(r.ids, drone.ID)
	r.drones[drone.ID] = &cp
	return nil
}

func (r *fakeDroneRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drones, id)
	return nil
}

func (r *fakeDroneRepo) Claim(ctx context.Context, id string) error {
	if r.claimHook != nil {
		if err := r.claimHook(id); err != nil {
			return err
		}
	}
	return r.SetStatus(ctx, id, entity.DroneStatusActive, entity.DroneStatusMatched)
}

func (r *fakeDroneRepo) Release(ctx context.Context, id string) error {
	err := r.SetStatus(ctx, id, entity.DroneStatusMatched, entity.DroneStatusActive)
	if err == nil {
		r.mu.Lock()
		r.released = append(r.released, id)
		r.mu.Unlock()
	}
	return err
}

func (r *fakeDroneRepo) SetStatus(_ context.Context, id string, from, to entity.DroneStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drones[id]
	if !ok || d.Status != from {
		return entity.ErrStalePrecondition
	}
	d.Status = to
	return nil
}

func (r *fakeDroneRepo) UpdateLocation(_ context.Context, id string, location entity.GeoPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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

	findStoreErr error
}

func newFakePlaceRepo() *fakePlaceRepo {
	return &fakePlaceRepo{
		stores: make(map[string]*entity.Store),
		users:  make(map[string]*entity.User),
	}
}

func (r *fakePlaceRepo) FindStore(_ context.Context, id string) (*entity.Store, error) {
	if r.findStoreErr != nil {
		return nil, r.findStoreErr
	}
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
