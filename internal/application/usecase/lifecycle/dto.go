package lifecycle

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/skyops/skycourier/internal/domain/entity"
)

// ErrMalformedRecord marks a telemetry record that can never become valid;
// the stream consumer checkpoints past it.
var ErrMalformedRecord = errors.New("malformed telemetry record")

// Record is one drone position report.
type Record struct {
	DroneID  string
	Location entity.GeoPoint
}

type wireRecord struct {
	DroneID  string `json:"droneID"`
	Location string `json:"location"`
}

func ParseRecord(payload []byte) (Record, error) {
	var w wireRecord
	if err := json.Unmarshal(payload, &w); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if w.DroneID == "" || w.Location == "" {
		return Record{}, fmt.Errorf("%w: missing required field", ErrMalformedRecord)
	}

	loc, err := entity.ParseGeoPoint(w.Location)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	return Record{DroneID: w.DroneID, Location: loc}, nil
}
