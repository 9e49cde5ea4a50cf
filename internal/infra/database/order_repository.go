package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/skyops/skycourier/internal/domain/entity"
)

type OrderRepositoryImpl struct {
	Db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepositoryImpl {
	return &OrderRepositoryImpl{Db: db}
}

const orderColumns = "id, store_id, user_id, status, assigned_drone, version, created_at"

func (r *OrderRepositoryImpl) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	row := r.Db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	return scanOrder(row)
}

func (r *OrderRepositoryImpl) FindByAssignedDrone(ctx context.Context, droneID string) (*entity.Order, error) {
	row := r.Db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE assigned_drone = $1", droneID)
	return scanOrder(row)
}

func (r *OrderRepositoryImpl) List(ctx context.Context, status entity.OrderStatus) ([]entity.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders"
	args := []any{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at"

	rows, err := r.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *OrderRepositoryImpl) CreateWithEvent(ctx context.Context, order *entity.Order, payload, traceContext []byte) error {
	tx, err := r.Db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, store_id, user_id, status, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		order.ID, order.StoreID, order.UserID, string(order.Status), order.Version, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_events (id, order_id, event_type, payload, trace_context, status)
		 VALUES ($1, $2, $3, $4, $5, 'pending')`,
		uuid.NewString(), order.ID, "order.created", payload, traceContext)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	return tx.Commit()
}

func (r *OrderRepositoryImpl) Assign(ctx context.Context, id, droneID string, expectedVersion int64) error {
	res, err := r.Db.ExecContext(ctx,
		`UPDATE orders
		 SET status = $1, assigned_drone = $2, version = version + 1
		 WHERE id = $3 AND version = $4`,
		string(entity.OrderStatusAssigned), droneID, id, expectedVersion)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *OrderRepositoryImpl) AdvanceStatus(ctx context.Context, id string, from, to entity.OrderStatus) error {
	var res sql.Result
	var err error
	if to == entity.OrderStatusCompleted {
		res, err = r.Db.ExecContext(ctx,
			`UPDATE orders
			 SET status = $1, assigned_drone = NULL, version = version + 1
			 WHERE id = $2 AND status = $3`,
			string(to), id, string(from))
	} else {
		res, err = r.Db.ExecContext(ctx,
			`UPDATE orders
			 SET status = $1, version = version + 1
			 WHERE id = $2 AND status = $3`,
			string(to), id, string(from))
	}
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *OrderRepositoryImpl) Delete(ctx context.Context, id string) error {
	res, err := r.Db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	var o entity.Order
	var status string
	var assignedDrone sql.NullString

	err := row.Scan(&o.ID, &o.StoreID, &o.UserID, &status, &assignedDrone, &o.Version, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	o.Status, err = entity.ParseOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", o.ID, err)
	}
	if assignedDrone.Valid {
		o.AssignedDrone = assignedDrone.String
	}
	return &o, nil
}

// checkAffected maps a zero-row conditional update to the stale-precondition
// error conditional writes are expected to surface.
func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrStalePrecondition
	}
	return nil
}
