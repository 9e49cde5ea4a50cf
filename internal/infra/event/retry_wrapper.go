package event

import (
	"context"
	"math"
	"time"

	"github.com/skyops/skycourier/pkg/logger"
	"github.com/skyops/skycourier/pkg/metrics"
)

// WrapExponentialBackoff retries transient failures (error returns) in
// process before surrendering the message to the broker's redelivery. A clean
// RetryLater with no error (e.g. no drones available) is not retried here:
// waiting out the visibility window is the intended behavior for it.
func WrapExponentialBackoff(
	log logger.Logger,
	m metrics.Metrics,
	handlerName string,
	maxRetries int,
	baseWait time.Duration,
	next MessageHandler,
) MessageHandler {
	return func(ctx context.Context, msg []byte, headers map[string]interface{}) (Result, error) {
		var result Result
		var err error
		for attempt := 0; attempt <= maxRetries; attempt++ {
			result, err = next(ctx, msg, headers)
			if err == nil {
				return result, nil
			}
			if attempt < maxRetries {
				wait := baseWait * time.Duration(math.Pow(2, float64(attempt)))

				log.Warn(ctx, "transient failure, retrying",
					logger.String("handler", handlerName),
					logger.Int("attempt", attempt+1),
					logger.String("wait", wait.String()),
					logger.WithError(err),
				)

				timer := time.NewTimer(wait)
				select {
				case <-timer.C:
				case <-ctx.Done():
					if !timer.Stop() {
						<-timer.C
					}
					return ResultRetry, ctx.Err()
				}
			}
		}

		log.Error(ctx, "max retries reached, giving up",
			logger.String("handler", handlerName),
			logger.WithError(err),
		)
		m.RecordUseCaseExecution(handlerName+"_final_failure", false, 0)
		return result, err
	}
}
