package matching

import (
	"context"
	"time"

	"github.com/skyops/skycourier/pkg/metrics"
)

type MetricsDecorator struct {
	Next    UseCase
	Metrics metrics.Metrics
}

func (d *MetricsDecorator) Execute(ctx context.Context, ev Event) (Outcome, error) {
	start := time.Now()
	outcome, err := d.Next.Execute(ctx, ev)
	d.Metrics.RecordUseCaseExecution("MatchOrder", err == nil, time.Since(start))
	d.Metrics.RecordOrderMatched(outcome.String())
	return outcome, err
}
