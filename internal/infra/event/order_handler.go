package event

import (
	"context"

	"github.com/skyops/skycourier/internal/application/usecase/matching"
	"github.com/skyops/skycourier/pkg/logger"
	"github.com/skyops/skycourier/pkg/metrics"
)

// NewOrderCreatedHandler bridges inbox messages into the matching engine.
// Malformed payloads are acknowledged and dropped: they can never become
// valid, so redelivering them would loop forever.
func NewOrderCreatedHandler(uc matching.UseCase, m metrics.Metrics, log logger.Logger) MessageHandler {
	return func(ctx context.Context, msg []byte, headers map[string]interface{}) (Result, error) {
		ev, err := matching.ParseEvent(msg)
		if err != nil {
			log.Warn(ctx, "discarding malformed order event", logger.WithError(err))
			m.IncInboxMessage("malformed")
			return ResultAck, nil
		}

		outcome, err := uc.Execute(ctx, ev)
		if outcome == matching.RetryLater {
			m.IncInboxMessage("retry")
			return ResultRetry, err
		}
		m.IncInboxMessage("ack")
		return ResultAck, err
	}
}
