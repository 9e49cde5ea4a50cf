package orders

import (
	"context"

	"github.com/skyops/skycourier/internal/domain/entity"
)

type fakeOrderRepo struct {
	orders map[string]*entity.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*entity.Order)}
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id string) (*entity.Order, error) {
	if o, ok := r.orders[id]; ok {
		cp := *o
		return &cp, nil
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
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return entity.ErrStalePrecondition
	}
	o.Status = to
	o.Version++
	return nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, id string) error {
	delete(r.orders, id)
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
