package entity

// Store and User are the two waypoints of a delivery: pickup happens at the
// store, dropoff at the user. Both are reference data, read-only to the
// matching and lifecycle paths.

type Store struct {
	ID       string
	Location GeoPoint
}

func NewStore(id string, location GeoPoint) (*Store, error) {
	if id == "" {
		return nil, ErrIDIsRequired
	}
	if !location.Valid() {
		return nil, ErrInvalidLocation
	}
	return &Store{ID: id, Location: location}, nil
}

type User struct {
	ID       string
	Location GeoPoint
}

func NewUser(id string, location GeoPoint) (*User, error) {
	if id == "" {
		return nil, ErrIDIsRequired
	}
	if !location.Valid() {
		return nil, ErrInvalidLocation
	}
	return &User{ID: id, Location: location}, nil
}
