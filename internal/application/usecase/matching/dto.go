package matching

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/skyops/skycourier/internal/domain/entity"
)

// ErrMalformedEvent marks an event that can never become valid. Consumers
// must acknowledge and discard it instead of letting it redeliver.
var ErrMalformedEvent = errors.New("malformed order event")

// Event is one order-created/changed notification from the inbox.
// StoreLocation is optional on the wire; when nil the engine resolves it from
// the store record.
type Event struct {
	OrderID         string
	StoreID         string
	UserID          string
	ExpectedVersion int64
	StoreLocation   *entity.GeoPoint
}

type wireEvent struct {
	UUID          string `json:"UUID"`
	StoreID       string `json:"StoreID"`
	UserID        string `json:"UserID"`
	Version       string `json:"Version"`
	StoreLocation string `json:"StoreLocation,omitempty"`
}

// ParseEvent decodes the order-created wire format. Any missing or
// unparseable required field yields ErrMalformedEvent.
func ParseEvent(body []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(body, &w); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if w.UUID == "" || w.StoreID == "" || w.UserID == "" || w.Version == "" {
		return Event{}, fmt.Errorf("%w: missing required field", ErrMalformedEvent)
	}

	version, err := strconv.ParseInt(w.Version, 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("%w: version %q", ErrMalformedEvent, w.Version)
	}

	ev := Event{
		OrderID:         w.UUID,
		StoreID:         w.StoreID,
		UserID:          w.UserID,
		ExpectedVersion: version,
	}

	if w.StoreLocation != "" {
		loc, err := entity.ParseGeoPoint(w.StoreLocation)
		if err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		ev.StoreLocation = &loc
	}

	return ev, nil
}
