package event

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/skyops/skycourier/pkg/metrics"
)

// WrapResilientConsumer bounds each message with a timeout and a circuit
// breaker. With the breaker open, messages are retried (left on the queue)
// instead of hammering a record store that is already down.
func WrapResilientConsumer(
	m metrics.Metrics,
	handlerName string,
	timeout time.Duration,
	cb *gobreaker.CircuitBreaker,
	next MessageHandler,
) MessageHandler {
	return func(ctx context.Context, msg []byte, headers map[string]interface{}) (Result, error) {
		start := time.Now()

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		res, err := cb.Execute(func() (interface{}, error) {
			result, err := next(ctx, msg, headers)
			return result, err
		})

		if errors.Is(err, gobreaker.ErrOpenState) {
			m.RecordUseCaseExecution(handlerName, false, 0)
			return ResultRetry, err
		}

		duration := time.Since(start)
		m.RecordUseCaseExecution(handlerName, err == nil, duration)

		result, ok := res.(Result)
		if !ok {
			result = ResultRetry
		}
		return result, err
	}
}
