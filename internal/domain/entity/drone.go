package entity

type DroneStatus string

const (
	DroneStatusActive          DroneStatus = "Active"
	DroneStatusMatched         DroneStatus = "Matched"
	DroneStatusPickupCompleted DroneStatus = "PickupCompleted"
)

// Drone is a fleet vehicle. While its status is anything other than Active it
// is executing exactly one order (the one whose AssignedDrone references it).
type Drone struct {
	ID       string
	Status   DroneStatus
	Location GeoPoint
}

func NewDrone(id string, location GeoPoint) (*Drone, error) {
	if id == "" {
		return nil, ErrIDIsRequired
	}
	if !location.Valid() {
		return nil, ErrInvalidLocation
	}
	return &Drone{ID: id, Status: DroneStatusActive, Location: location}, nil
}

func (d *Drone) Available() bool {
	return d.Status == DroneStatusActive
}

func ParseDroneStatus(s string) (DroneStatus, error) {
	switch DroneStatus(s) {
	case DroneStatusActive, DroneStatusMatched, DroneStatusPickupCompleted:
		return DroneStatus(s), nil
	}
	return "", ErrInvalidStatus
}
