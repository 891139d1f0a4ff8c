package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fauzanhr/pharmastock-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Location, error) {
	var loc model.Location
	err := r.DB.GetContext(ctx, &loc, `SELECT id, name, type, created_at FROM locations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query location: %w", err)
	}
	return &loc, nil
}

func (r *PGRepository) FindAll(ctx context.Context) ([]model.Location, error) {
	var locs []model.Location
	err := r.DB.SelectContext(ctx, &locs, `SELECT id, name, type, created_at FROM locations ORDER BY name`)
	return locs, err
}
