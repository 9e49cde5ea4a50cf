package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skyops/skycourier/pkg/logger"
)

type fakeIdempotencyStore struct {
	keys      map[string]bool
	setNXErr  error
	deletions []string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{keys: make(map[string]bool)}
}

func (s *fakeIdempotencyStore) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) (bool, error) {
	if s.setNXErr != nil {
		return false, s.setNXErr
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *fakeIdempotencyStore) Del(_ context.Context, key string) error {
	delete(s.keys, key)
	s.deletions = append(s.deletions, key)
	return nil
}

func passthrough(result Result, err error) (MessageHandler, *int) {
	calls := new(int)
	return func(context.Context, []byte, map[string]interface{}) (Result, error) {
		*calls++
		return result, err
	}, calls
}

func TestWrapIdempotency_FirstDeliveryPasses(t *testing.T) {
	next, calls := passthrough(ResultAck, nil)
	h := WrapIdempotency(logger.NewNop(), newFakeIdempotencyStore(), "h", time.Hour, next)

	result, err := h(context.Background(), []byte("msg"), map[string]interface{}{"x-event-id": "ev-1"})

	assert.Nil(t, err)
	assert.Equal(t, ResultAck, result)
	assert.Equal(t, 1, *calls)
}

func TestWrapIdempotency_DuplicateIsDropped(t *testing.T) {
	next, calls := passthrough(ResultAck, nil)
	store := newFakeIdempotencyStore()
	h := WrapIdempotency(logger.NewNop(), store, "h", time.Hour, next)

	headers := map[string]interface{}{"x-event-id": "ev-1"}
	h(context.Background(), []byte("msg"), headers)
	result, err := h(context.Background(), []byte("msg"), headers)

	assert.Nil(t, err)
	assert.Equal(t, ResultAck, result)
	assert.Equal(t, 1, *calls)
}

func TestWrapIdempotency_RetryReleasesKey(t *testing.T) {
	next, calls := passthrough(ResultRetry, nil)
	store := newFakeIdempotencyStore()
	h := WrapIdempotency(logger.NewNop(), store, "h", time.Hour, next)

	headers := map[string]interface{}{"x-event-id": "ev-1"}
	result, _ := h(context.Background(), []byte("msg"), headers)

	assert.Equal(t, ResultRetry, result)
	assert.Len(t, store.deletions, 1)

	// The redelivery must reach the handler again.
	h(context.Background(), []byte("msg"), headers)
	assert.Equal(t, 2, *calls)
}

func TestWrapIdempotency_StoreDown_FailsClosed(t *testing.T) {
	next, calls := passthrough(ResultAck, nil)
	store := newFakeIdempotencyStore()
	store.setNXErr = errors.New("redis down")
	h := WrapIdempotency(logger.NewNop(), store, "h", time.Hour, next)

	result, err := h(context.Background(), []byte("msg"), nil)

	assert.Error(t, err)
	assert.Equal(t, ResultRetry, result)
	assert.Zero(t, *calls)
}

func TestWrapIdempotency_MissingHeaderFallsBackToBodyHash(t *testing.T) {
	next, calls := passthrough(ResultAck, nil)
	store := newFakeIdempotencyStore()
	h := WrapIdempotency(logger.NewNop(), store, "h", time.Hour, next)

	h(context.Background(), []byte("same body"), nil)
	h(context.Background(), []byte("same body"), nil)
	h(context.Background(), []byte("other body"), nil)

	assert.Equal(t, 2, *calls)
}
