package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fauzanhr/pharmastock-service/internal/apperr"
	invrepo "github.com/fauzanhr/pharmastock-service/internal/inventory/repository"
	"github.com/fauzanhr/pharmastock-service/internal/model"
	"github.com/fauzanhr/pharmastock-service/internal/sale/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, s *model.Sale) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	unitCost, err := invrepo.DebitReturningCostTx(ctx, tx, s.Key(), s.Quantity)
	if err != nil {
		return err
	}
	s.UnitCost = unitCost

	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	s.CreatedAt = time.Now()
	_, err = tx.NamedExecContext(ctx, `
        INSERT INTO sales (id, location_id, description, unit, quantity, unit_cost,
                           selling_price, total_amount, sold_by, customer_name, created_at)
        VALUES (:id, :location_id, :description, :unit, :quantity, :unit_cost,
                :selling_price, :total_amount, :sold_by, :customer_name, :created_at)`, s)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return tx.Commit()
}

const selectSale = `
    SELECT s.id, s.location_id, s.description, s.unit, s.quantity, s.unit_cost,
           s.selling_price, s.total_amount, s.sold_by, s.customer_name, s.created_at,
           l.name AS location_name
    FROM sales s
    JOIN locations l ON l.id = s.location_id`

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Sale, error) {
	var s model.Sale
	err := r.DB.GetContext(ctx, &s, selectSale+` WHERE s.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query sale: %w", err)
	}
	return &s, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.SaleFilters) ([]model.Sale, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.LocationID != "" {
		conditions = append(conditions, "s.location_id = :location_id")
		args["location_id"] = f.LocationID
	}
	if f.SoldBy != "" {
		conditions = append(conditions, "s.sold_by = :sold_by")
		args["sold_by"] = f.SoldBy
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*) FROM sales s"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, err
		}
	}

	query := selectSale + whereClause + " ORDER BY s.created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var items []model.Sale
	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) Delete(ctx context.Context, id string) (*model.Sale, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var s model.Sale
	err = tx.QueryRowxContext(ctx, `
        DELETE FROM sales WHERE id = $1
        RETURNING id, location_id, description, unit, quantity, unit_cost,
                  selling_price, total_amount, sold_by, customer_name, created_at`,
		id).StructScan(&s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("sale %s not found", id)
		}
		return nil, fmt.Errorf("delete sale: %w", err)
	}

	// Restore exactly what the sale had debited, to the same line key.
	if err := invrepo.CreditTx(ctx, tx, s.Key(), s.Quantity, s.UnitCost); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &s, nil
}
