package orders

import (
	"context"
	"time"

	"github.com/skyops/skycourier/pkg/metrics"
)

type CreateMetricsDecorator struct {
	Next    CreateUseCase
	Metrics metrics.Metrics
}

func (d *CreateMetricsDecorator) Execute(ctx context.Context, input CreateInput) (CreateOutput, error) {
	start := time.Now()
	output, err := d.Next.Execute(ctx, input)
	d.Metrics.RecordUseCaseExecution("CreateOrder", err == nil, time.Since(start))
	if err == nil {
		d.Metrics.RecordOrderCreated(output.Status)
	} else {
		d.Metrics.RecordOrderCreated("rejected")
	}
	return output, err
}
