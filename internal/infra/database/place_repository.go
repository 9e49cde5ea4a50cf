package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/skyops/skycourier/internal/domain/entity"
)

type PlaceRepositoryImpl struct {
	Db *sql.DB
}

func NewPlaceRepository(db *sql.DB) *PlaceRepositoryImpl {
	return &PlaceRepositoryImpl{Db: db}
}

func (r *PlaceRepositoryImpl) FindStore(ctx context.Context, id string) (*entity.Store, error) {
	var s entity.Store
	err := r.Db.QueryRowContext(ctx,
		"SELECT id, lat, lon FROM stores WHERE id = $1", id).
		Scan(&s.ID, &s.Location.Lat, &s.Location.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PlaceRepositoryImpl) FindUser(ctx context.Context, id string) (*entity.User, error) {
	var u entity.User
	err := r.Db.QueryRowContext(ctx,
		"SELECT id, lat, lon FROM users WHERE id = $1", id).
		Scan(&u.ID, &u.Location.Lat, &u.Location.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PlaceRepositoryImpl) CreateStore(ctx context.Context, store *entity.Store) error {
	_, err := r.Db.ExecContext(ctx,
		"INSERT INTO stores (id, lat, lon) VALUES ($1, $2, $3)",
		store.ID, store.Location.Lat, store.Location.Lon)
	return err
}

func (r *PlaceRepositoryImpl) CreateUser(ctx context.Context, user *entity.User) error {
	_, err := r.Db.ExecContext(ctx,
		"INSERT INTO users (id, lat, lon) VALUES ($1, $2, $3)",
		user.ID, user.Location.Lat, user.Location.Lon)
	return err
}
