package entity

import "time"

type OrderStatus string

const (
	OrderStatusCreated          OrderStatus = "Created"
	OrderStatusAssigned         OrderStatus = "Assigned"
	OrderStatusPickupCompleted  OrderStatus = "PickupCompleted"
	OrderStatusDropoffCompleted OrderStatus = "DropoffCompleted"
	OrderStatusCompleted        OrderStatus = "Completed"
)

// Order is a delivery order moving from Created through Completed. Version is
// the optimistic-concurrency counter: it starts at 1 and every accepted
// mutation increments it by exactly one. AssignedDrone is empty unless the
// order is in flight (Assigned, PickupCompleted or DropoffCompleted).
type Order struct {
	ID            string
	StoreID       string
	UserID        string
	Status        OrderStatus
	AssignedDrone string
	Version       int64
	CreatedAt     time.Time
}

func NewOrder(id, storeID, userID string) (*Order, error) {
	o := &Order{
		ID:        id,
		StoreID:   storeID,
		UserID:    userID,
		Status:    OrderStatusCreated,
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Order) Validate() error {
	if o.ID == "" {
		return ErrIDIsRequired
	}
	if o.StoreID == "" {
		return ErrStoreIsRequired
	}
	if o.UserID == "" {
		return ErrUserIsRequired
	}
	return nil
}

// InFlight reports whether the order currently occupies a drone.
func (o *Order) InFlight() bool {
	switch o.Status {
	case OrderStatusAssigned, OrderStatusPickupCompleted, OrderStatusDropoffCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further lifecycle transition may occur.
func (o *Order) Terminal() bool {
	return o.Status == OrderStatusCompleted
}

// NextStatus returns the lifecycle successor of a status. It encodes the
// delivery progression Assigned -> PickupCompleted -> DropoffCompleted ->
// Completed; Created advances only through matching, Completed is terminal.
func (s OrderStatus) NextStatus() (OrderStatus, bool) {
	switch s {
	case OrderStatusAssigned:
		return OrderStatusPickupCompleted, true
	case OrderStatusPickupCompleted:
		return OrderStatusDropoffCompleted, true
	case OrderStatusDropoffCompleted:
		return OrderStatusCompleted, true
	}
	return "", false
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusCreated, OrderStatusAssigned, OrderStatusPickupCompleted,
		OrderStatusDropoffCompleted, OrderStatusCompleted:
		return OrderStatus(s), nil
	}
	return "", ErrInvalidStatus
}
