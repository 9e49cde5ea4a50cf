package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skyops/skycourier/internal/application/usecase/lifecycle"
	"github.com/skyops/skycourier/pkg/logger"
	"github.com/skyops/skycourier/pkg/metrics"
)

type fakeAdvancer struct {
	err     error
	records []lifecycle.Record
}

func (f *fakeAdvancer) Execute(_ context.Context, rec lifecycle.Record) (lifecycle.Transition, error) {
	f.records = append(f.records, rec)
	return lifecycle.Transition{}, f.err
}

var validRecord = []byte(`{"droneID":"drone-1","location":"1.5,2.5"}`)

func TestTelemetryHandler_ProcessesRecord(t *testing.T) {
	advancer := &fakeAdvancer{}
	h := NewTelemetryHandler(advancer, metrics.NewNop(), logger.NewNop())

	err := h(context.Background(), []byte("drone-1"), validRecord)

	assert.Nil(t, err)
	assert.Len(t, advancer.records, 1)
	assert.Equal(t, "drone-1", advancer.records[0].DroneID)
}

func TestTelemetryHandler_SkipsMalformedRecord(t *testing.T) {
	advancer := &fakeAdvancer{}
	h := NewTelemetryHandler(advancer, metrics.NewNop(), logger.NewNop())

	// nil error means the consumer checkpoints past the record.
	err := h(context.Background(), []byte("drone-1"), []byte("garbage"))

	assert.Nil(t, err)
	assert.Empty(t, advancer.records)
}

func TestTelemetryHandler_PropagatesFailure(t *testing.T) {
	advancer := &fakeAdvancer{err: errors.New("store down")}
	h := NewTelemetryHandler(advancer, metrics.NewNop(), logger.NewNop())

	// An error keeps the checkpoint where it is so the record redelivers.
	err := h(context.Background(), []byte("drone-1"), validRecord)

	assert.Error(t, err)
}
