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
	"github.com/shopspring/decimal"

	"github.com/fauzanhr/pharmastock-service/internal/apperr"
	"github.com/fauzanhr/pharmastock-service/internal/inventory/dto"
	"github.com/fauzanhr/pharmastock-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetByKey(ctx context.Context, key model.LineKey) (*model.InventoryLine, error) {
	var line model.InventoryLine
	err := r.DB.GetContext(ctx, &line, `
        SELECT i.id, i.location_id, i.description, i.unit, i.quantity, i.unit_cost,
               i.suggested_selling_price, i.expiry_date, i.batch_number,
               i.created_at, i.updated_at, l.name AS location_name
        FROM inventory i
        JOIN locations l ON l.id = i.location_id
        WHERE i.location_id = $1 AND i.description = $2 AND i.unit = $3`,
		key.LocationID, key.Description, key.Unit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query inventory line: %w", err)
	}
	return &line, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.LineFilters) ([]model.InventoryLine, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.LocationID != "" {
		conditions = append(conditions, "i.location_id = :location_id")
		args["location_id"] = f.LocationID
	}
	if f.Description != "" {
		conditions = append(conditions, "i.description ILIKE :description")
		args["description"] = "%" + f.Description + "%"
	}
	if f.LowStockBelow != nil {
		conditions = append(conditions, "i.quantity <= :low_stock_below")
		args["low_stock_below"] = *f.LowStockBelow
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery := "SELECT count(*) FROM inventory i" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, err
		}
	}

	query := `
        SELECT i.id, i.location_id, i.description, i.unit, i.quantity, i.unit_cost,
               i.suggested_selling_price, i.expiry_date, i.batch_number,
               i.created_at, i.updated_at, l.name AS location_name
        FROM inventory i
        JOIN locations l ON l.id = i.location_id` + whereClause + `
        ORDER BY i.description, i.unit`
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var items []model.InventoryLine
	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) MergeUpsert(ctx context.Context, line *model.InventoryLine) error {
	return MergeUpsertTx(ctx, r.DB, line)
}

func (r *PGRepository) Debit(ctx context.Context, key model.LineKey, qty decimal.Decimal) error {
	return DebitTx(ctx, r.DB, key, qty)
}

func (r *PGRepository) Credit(ctx context.Context, key model.LineKey, qty, unitCost decimal.Decimal) error {
	return CreditTx(ctx, r.DB, key, qty, unitCost)
}

// The Tx helpers below are the only code that writes to the ledger. Workflow
// repositories call them inside their own transactions so a status transition
// and its ledger effect commit or roll back together.

// DebitTx subtracts qty as one conditional write; zero rows affected means the
// stock did not cover the request and the transaction must be rolled back.
func DebitTx(ctx context.Context, q sqlx.ExtContext, key model.LineKey, qty decimal.Decimal) error {
	res, err := q.ExecContext(ctx, `
        UPDATE inventory
        SET quantity = quantity - $4, updated_at = now()
        WHERE location_id = $1 AND description = $2 AND unit = $3 AND quantity >= $4`,
		key.LocationID, key.Description, key.Unit, qty)
	if err != nil {
		return fmt.Errorf("debit inventory: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit inventory: %w", err)
	}
	if rows == 0 {
		available, err := AvailableTx(ctx, q, key)
		if err != nil {
			return fmt.Errorf("debit inventory: %w", err)
		}
		return apperr.InsufficientStock(available, qty)
	}
	return nil
}

// DebitReturningCostTx is DebitTx plus the line's current unit cost, for
// callers that must copy cost at the moment of the debit.
func DebitReturningCostTx(ctx context.Context, q sqlx.ExtContext, key model.LineKey, qty decimal.Decimal) (decimal.Decimal, error) {
	var unitCost decimal.Decimal
	err := q.QueryRowxContext(ctx, `
        UPDATE inventory
        SET quantity = quantity - $4, updated_at = now()
        WHERE location_id = $1 AND description = $2 AND unit = $3 AND quantity >= $4
        RETURNING unit_cost`,
		key.LocationID, key.Description, key.Unit, qty).Scan(&unitCost)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			available, aerr := AvailableTx(ctx, q, key)
			if aerr != nil {
				return decimal.Zero, fmt.Errorf("debit inventory: %w", aerr)
			}
			return decimal.Zero, apperr.InsufficientStock(available, qty)
		}
		return decimal.Zero, fmt.Errorf("debit inventory: %w", err)
	}
	return unitCost, nil
}

// CreditTx adds qty to the line, creating it on first credit. Cost is
// refreshed; the selling price of an existing line is left alone.
func CreditTx(ctx context.Context, q sqlx.ExtContext, key model.LineKey, qty, unitCost decimal.Decimal) error {
	_, err := q.ExecContext(ctx, `
        INSERT INTO inventory (id, location_id, description, unit, quantity, unit_cost,
                               suggested_selling_price, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6, now(), now())
        ON CONFLICT (location_id, description, unit)
        DO UPDATE SET
            quantity = inventory.quantity + EXCLUDED.quantity,
            unit_cost = EXCLUDED.unit_cost,
            updated_at = now()`,
		uuid.New().String(), key.LocationID, key.Description, key.Unit, qty, unitCost)
	if err != nil {
		return fmt.Errorf("credit inventory: %w", err)
	}
	return nil
}

// MergeUpsertTx is the full insert-or-add: quantity accumulates, cost and
// price are overwritten, expiry and batch only when the caller supplied them.
func MergeUpsertTx(ctx context.Context, q sqlx.ExtContext, line *model.InventoryLine) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	now := time.Now()
	line.CreatedAt = now
	line.UpdatedAt = now
	_, err := sqlx.NamedExecContext(ctx, q, `
        INSERT INTO inventory (id, location_id, description, unit, quantity, unit_cost,
                               suggested_selling_price, expiry_date, batch_number,
                               created_at, updated_at)
        VALUES (:id, :location_id, :description, :unit, :quantity, :unit_cost,
                :suggested_selling_price, :expiry_date, :batch_number,
                :created_at, :updated_at)
        ON CONFLICT (location_id, description, unit)
        DO UPDATE SET
            quantity = inventory.quantity + EXCLUDED.quantity,
            unit_cost = EXCLUDED.unit_cost,
            suggested_selling_price = EXCLUDED.suggested_selling_price,
            expiry_date = COALESCE(EXCLUDED.expiry_date, inventory.expiry_date),
            batch_number = COALESCE(EXCLUDED.batch_number, inventory.batch_number),
            updated_at = now()`, line)
	if err != nil {
		return fmt.Errorf("merge upsert inventory: %w", err)
	}
	return nil
}

// AvailableTx reads the current quantity for error reporting; a missing line
// counts as zero.
func AvailableTx(ctx context.Context, q sqlx.ExtContext, key model.LineKey) (decimal.Decimal, error) {
	var qty decimal.Decimal
	err := q.QueryRowxContext(ctx, `
        SELECT quantity FROM inventory
        WHERE location_id = $1 AND description = $2 AND unit = $3`,
		key.LocationID, key.Description, key.Unit).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return qty, nil
}
