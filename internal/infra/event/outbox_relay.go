package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/skyops/skycourier/internal/infra/database"
	"github.com/skyops/skycourier/pkg/logger"
	"github.com/skyops/skycourier/pkg/metrics"
	otelhelper "github.com/skyops/skycourier/pkg/otel"
)

// OutboxStore is the slice of the event record store the relay drives.
type OutboxStore interface {
	FetchAndClaim(ctx context.Context, limit int) ([]database.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
	MarkPending(ctx context.Context, id uuid.UUID) error
	ResetStuckEvents(ctx context.Context, olderThan string) (int64, error)
	DeleteOldOutboxEvents(ctx context.Context, olderThan string) (int64, error)
}

// MessagePublisher sends one staged event to the broker.
type MessagePublisher interface {
	Publish(ctx context.Context, messageID string, body []byte) error
}

// OutboxRelay drains staged order-created events from the record store and
// publishes them to the inbox queue. Claiming happens in a short transaction;
// the network publishes run outside it with a bounded worker pool.
type OutboxRelay struct {
	outbox    OutboxStore
	publisher MessagePublisher
	logger    logger.Logger
	metrics   metrics.Metrics
	batchSize int
	workers   int
}

func NewOutboxRelay(
	outbox OutboxStore,
	publisher MessagePublisher,
	log logger.Logger,
	m metrics.Metrics,
	batchSize, workers int,
) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	if workers <= 0 {
		workers = 10
	}
	return &OutboxRelay{
		outbox:    outbox,
		publisher: publisher,
		logger:    log,
		metrics:   m,
		batchSize: batchSize,
		workers:   workers,
	}
}

func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.processBatch(ctx)
		}
	}
}

// RunRescuer periodically returns events stranded in processing (a crashed
// relay, or a MarkPublished that never landed) to pending, and prunes
// published events past retention.
func (r *OutboxRelay) RunRescuer(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.rescue(ctx)
		}
	}
}

func (r *OutboxRelay) rescue(ctx context.Context) {
	rescued, err := r.outbox.ResetStuckEvents(ctx, "5 minutes")
	if err != nil {
		r.logger.Error(ctx, "failed to reset stuck outbox events", logger.WithError(err))
	} else if rescued > 0 {
		r.metrics.IncOutboxEventsProcessed("rescued")
		r.logger.Warn(ctx, "returned stuck outbox events to pending",
			logger.Int("count", int(rescued)),
		)
	}

	if _, err := r.outbox.DeleteOldOutboxEvents(ctx, "7 days"); err != nil {
		r.logger.Error(ctx, "outbox cleanup failed", logger.WithError(err))
	}
}

func (r *OutboxRelay) processBatch(ctx context.Context) {
	events, err := r.outbox.FetchAndClaim(ctx, r.batchSize)
	if err != nil {
		r.logger.Error(ctx, "failed to fetch outbox batch", logger.WithError(err))
		return
	}
	if len(events) == 0 {
		return
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, evt := range events {
		g.Go(func() error {
			return r.publishEvent(gCtx, evt)
		})
	}

	if err := g.Wait(); err != nil {
		r.logger.Error(ctx, "outbox batch had errors", logger.WithError(err))
	}
}

func (r *OutboxRelay) publishEvent(ctx context.Context, evt database.OutboxEvent) error {
	pubCtx := otelhelper.InjectContextFromJSON(ctx, evt.TraceContext)

	if err := r.publisher.Publish(pubCtx, evt.ID.String(), evt.Payload); err != nil {
		r.metrics.IncOutboxEventsProcessed("failed")
		r.logger.Warn(pubCtx, "publish failed, returning event to outbox",
			logger.String("event_id", evt.ID.String()),
			logger.WithError(err),
		)
		if markErr := r.outbox.MarkPending(ctx, evt.ID); markErr != nil {
			r.logger.Error(ctx, "failed to return event to outbox",
				logger.String("event_id", evt.ID.String()),
				logger.WithError(markErr),
			)
		}
		return err
	}

	if err := r.outbox.MarkPublished(ctx, evt.ID); err != nil {
		// The publish went out; the event stays in processing until the
		// rescuer returns it to pending. The inbox consumer's version guard
		// absorbs the duplicate publish that causes.
		r.logger.Error(ctx, "failed to mark event published",
			logger.String("event_id", evt.ID.String()),
			logger.WithError(err),
		)
		return err
	}

	r.metrics.IncOutboxEventsProcessed("published")
	return nil
}
