package stream

import (
	"context"

	"github.com/skyops/skycourier/internal/application/usecase/lifecycle"
	"github.com/skyops/skycourier/pkg/logger"
	"github.com/skyops/skycourier/pkg/metrics"
)

// NewTelemetryHandler bridges stream records into the lifecycle advancer.
// Malformed records are checkpointed past: replaying them can never succeed.
func NewTelemetryHandler(uc lifecycle.UseCase, m metrics.Metrics, log logger.Logger) Handler {
	return func(ctx context.Context, key, value []byte) error {
		rec, err := lifecycle.ParseRecord(value)
		if err != nil {
			log.Warn(ctx, "skipping malformed telemetry record",
				logger.String("partition_key", string(key)),
				logger.WithError(err),
			)
			m.IncTelemetryRecord("malformed")
			return nil
		}

		if _, err := uc.Execute(ctx, rec); err != nil {
			m.IncTelemetryRecord("failed")
			return err
		}

		m.IncTelemetryRecord("processed")
		return nil
	}
}
