package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skyops/skycourier/pkg/logger"
	"github.com/skyops/skycourier/pkg/metrics"
)

func TestWrapExponentialBackoff_NoRetryOnSuccess(t *testing.T) {
	next, calls := passthrough(ResultAck, nil)
	h := WrapExponentialBackoff(logger.NewNop(), metrics.NewNop(), "h", 3, time.Millisecond, next)

	result, err := h(context.Background(), nil, nil)

	assert.Nil(t, err)
	assert.Equal(t, ResultAck, result)
	assert.Equal(t, 1, *calls)
}

func TestWrapExponentialBackoff_CleanRetryLaterNotRetriedInProcess(t *testing.T) {
	// RetryLater with no error means "wait for redelivery", e.g. no drones
	// available right now. Spinning on it locally would be pointless.
	next, calls := passthrough(ResultRetry, nil)
	h := WrapExponentialBackoff(logger.NewNop(), metrics.NewNop(), "h", 3, time.Millisecond, next)

	result, err := h(context.Background(), nil, nil)

	assert.Nil(t, err)
	assert.Equal(t, ResultRetry, result)
	assert.Equal(t, 1, *calls)
}

func TestWrapExponentialBackoff_RetriesTransientErrors(t *testing.T) {
	calls := 0
	next := func(context.Context, []byte, map[string]interface{}) (Result, error) {
		calls++
		if calls < 3 {
			return ResultRetry, errors.New("transient")
		}
		return ResultAck, nil
	}
	h := WrapExponentialBackoff(logger.NewNop(), metrics.NewNop(), "h", 3, time.Millisecond, next)

	result, err := h(context.Background(), nil, nil)

	assert.Nil(t, err)
	assert.Equal(t, ResultAck, result)
	assert.Equal(t, 3, calls)
}

func TestWrapExponentialBackoff_GivesUpAfterMaxRetries(t *testing.T) {
	next, calls := passthrough(ResultRetry, errors.New("still broken"))
	h := WrapExponentialBackoff(logger.NewNop(), metrics.NewNop(), "h", 2, time.Millisecond, next)

	result, err := h(context.Background(), nil, nil)

	assert.Error(t, err)
	assert.Equal(t, ResultRetry, result)
	assert.Equal(t, 3, *calls) // initial attempt + 2 retries
}
