package outbound

import (
	"context"

	"github.com/skyops/skycourier/internal/domain/entity"
)

// TelemetryPublisher emits a drone position report to the telemetry stream.
// Implementations must key the record by drone id so all reports for one
// drone land on the same ordered partition.
type TelemetryPublisher interface {
	Publish(ctx context.Context, droneID string, location entity.GeoPoint) error
}
