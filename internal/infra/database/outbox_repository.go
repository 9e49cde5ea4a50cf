package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// OutboxEvent is one staged order-created notification awaiting publication.
type OutboxEvent struct {
	ID           uuid.UUID
	OrderID      string
	EventType    string
	Payload      []byte
	TraceContext []byte
}

type OutboxRepositoryImpl struct {
	Db *sql.DB
}

func NewOutboxRepository(db *sql.DB) *OutboxRepositoryImpl {
	return &OutboxRepositoryImpl{Db: db}
}

// FetchAndClaim moves up to limit pending events to processing inside one
// short transaction. SKIP LOCKED keeps concurrent relay instances off each
// other's batches.
func (r *OutboxRepositoryImpl) FetchAndClaim(ctx context.Context, limit int) ([]OutboxEvent, error) {
	tx, err := r.Db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, order_id, event_type, payload, trace_context
		 FROM order_events
		 WHERE status = 'pending'
		 ORDER BY created_at
		 LIMIT $1
		 FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, err
	}

	var events []OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.OrderID, &e.EventType, &e.Payload, &e.TraceContext); err != nil {
			rows.Close()
			return nil, err
		}
		events = append(events, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(events) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE order_events SET status = 'processing', claimed_at = now() WHERE id = ANY($1)",
		pq.Array(ids)); err != nil {
		return nil, err
	}

	return events, tx.Commit()
}

func (r *OutboxRepositoryImpl) MarkPublished(ctx context.Context, id uuid.UUID) error {
	_, err := r.Db.ExecContext(ctx,
		"UPDATE order_events SET status = 'published', published_at = now() WHERE id = $1", id)
	return err
}

// MarkPending returns a failed publish to the queue for the next batch.
func (r *OutboxRepositoryImpl) MarkPending(ctx context.Context, id uuid.UUID) error {
	_, err := r.Db.ExecContext(ctx,
		"UPDATE order_events SET status = 'pending', claimed_at = NULL WHERE id = $1", id)
	return err
}

// ResetStuckEvents returns events claimed longer than olderThan ago (a crashed
// relay, or a publish whose MarkPublished never landed) to pending so the next
// batch picks them up. The inbox consumer's version guard absorbs the
// duplicate publish this can cause.
func (r *OutboxRepositoryImpl) ResetStuckEvents(ctx context.Context, olderThan string) (int64, error) {
	res, err := r.Db.ExecContext(ctx,
		`UPDATE order_events
		 SET status = 'pending', claimed_at = NULL
		 WHERE status = 'processing' AND claimed_at < now() - $1::interval`, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteOldOutboxEvents prunes published events past their retention window.
func (r *OutboxRepositoryImpl) DeleteOldOutboxEvents(ctx context.Context, olderThan string) (int64, error) {
	res, err := r.Db.ExecContext(ctx,
		`DELETE FROM order_events
		 WHERE status = 'published' AND published_at < now() - $1::interval`, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
