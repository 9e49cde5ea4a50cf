package lifecycle

import (
	"context"
	"time"

	"github.com/skyops/skycourier/pkg/metrics"
)

type MetricsDecorator struct {
	Next    UseCase
	Metrics metrics.Metrics
}

func (d *MetricsDecorator) Execute(ctx context.Context, rec Record) (Transition, error) {
	start := time.Now()
	tr, err := d.Next.Execute(ctx, rec)
	d.Metrics.RecordUseCaseExecution("AdvanceDelivery", err == nil, time.Since(start))
	if tr.Applied() {
		d.Metrics.RecordLifecycleTransition(string(tr.From), string(tr.To))
	}
	return tr, err
}
