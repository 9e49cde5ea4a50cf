package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/skyops/skycourier/internal/domain/entity"
)

type DroneRepositoryImpl struct {
	Db *sql.DB
}

func NewDroneRepository(db *sql.DB) *DroneRepositoryImpl {
	return &DroneRepositoryImpl{Db: db}
}

func (r *DroneRepositoryImpl) FindByID(ctx context.Context, id string) (*entity.Drone, error) {
	row := r.Db.QueryRowContext(ctx,
		"SELECT id, status, lat, lon FROM drones WHERE id = $1", id)
	return scanDrone(row)
}

func (r *DroneRepositoryImpl) List(ctx context.Context, status entity.DroneStatus) ([]entity.Drone, error) {
	query := "SELECT id, status, lat, lon FROM drones"
	args := []any{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, string(status))
	}
	query += " ORDER BY id"

	rows, err := r.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drones []entity.Drone
	for rows.Next() {
		d, err := scanDrone(rows)
		if err != nil {
			return nil, err
		}
		drones = append(drones, *d)
	}
	return drones, rows.Err()
}

func (r *DroneRepositoryImpl) ListActive(ctx context.Context) ([]entity.Drone, error) {
	return r.List(ctx, entity.DroneStatusActive)
}

func (r *DroneRepositoryImpl) Create(ctx context.Context, drone *entity.Drone) error {
	_, err := r.Db.ExecContext(ctx,
		"INSERT INTO drones (id, status, lat, lon) VALUES ($1, $2, $3, $4)",
		drone.ID, string(drone.Status), drone.Location.Lat, drone.Location.Lon)
	return err
}

func (r *DroneRepositoryImpl) Delete(ctx context.Context, id string) error {
	res, err := r.Db.ExecContext(ctx, "DELETE FROM drones WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *DroneRepositoryImpl) Claim(ctx context.Context, id string) error {
	return r.SetStatus(ctx, id, entity.DroneStatusActive, entity.DroneStatusMatched)
}

func (r *DroneRepositoryImpl) Release(ctx context.Context, id string) error {
	return r.SetStatus(ctx, id, entity.DroneStatusMatched, entity.DroneStatusActive)
}

// SetStatus is the drone-side conditional write: the row only moves if it is
// still in the expected source status at write time.
func (r *DroneRepositoryImpl) SetStatus(ctx context.Context, id string, from, to entity.DroneStatus) error {
	res, err := r.Db.ExecContext(ctx,
		"UPDATE drones SET status = $1 WHERE id = $2 AND status = $3",
		string(to), id, string(from))
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *DroneRepositoryImpl) UpdateLocation(ctx context.Context, id string, location entity.GeoPoint) error {
	res, err := r.Db.ExecContext(ctx,
		"UPDATE drones SET lat = $1, lon = $2 WHERE id = $3",
		location.Lat, location.Lon, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func scanDrone(row rowScanner) (*entity.Drone, error) {
	var d entity.Drone
	var status string

	err := row.Scan(&d.ID, &status, &d.Location.Lat, &d.Location.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	d.Status, err = entity.ParseDroneStatus(status)
	if err != nil {
		return nil, fmt.Errorf("drone %s: %w", d.ID, err)
	}
	return &d, nil
}
