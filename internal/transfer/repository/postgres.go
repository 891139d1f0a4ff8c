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
	"github.com/fauzanhr/pharmastock-service/internal/transfer/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateBatch(ctx context.Context, transfers []*model.Transfer) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, t := range transfers {
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		t.Status = model.TransferPending
		t.CreatedAt = now
		t.UpdatedAt = now
		_, err := tx.NamedExecContext(ctx, `
            INSERT INTO transfers (id, from_location_id, to_location_id, description, unit,
                                   quantity, unit_cost, status, requires_admin_approval,
                                   transferred_by, created_at, updated_at)
            VALUES (:id, :from_location_id, :to_location_id, :description, :unit,
                    :quantity, :unit_cost, :status, :requires_admin_approval,
                    :transferred_by, :created_at, :updated_at)`, t)
		if err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}
	}
	return tx.Commit()
}

const selectTransfer = `
    SELECT t.id, t.from_location_id, t.to_location_id, t.description, t.unit,
           t.quantity, t.unit_cost, t.status, t.requires_admin_approval,
           t.transferred_by, t.approved_by, t.delivered_by, t.rejection_reason,
           t.created_at, t.updated_at,
           lf.name AS from_location_name, lt.name AS to_location_name
    FROM transfers t
    JOIN locations lf ON lf.id = t.from_location_id
    JOIN locations lt ON lt.id = t.to_location_id`

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Transfer, error) {
	var t model.Transfer
	err := r.DB.GetContext(ctx, &t, selectTransfer+` WHERE t.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query transfer: %w", err)
	}
	return &t, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.TransferFilters) ([]model.Transfer, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "t.status = :status")
		args["status"] = f.Status
	}
	if f.LocationID != "" {
		conditions = append(conditions, "(t.from_location_id = :location_id OR t.to_location_id = :location_id)")
		args["location_id"] = f.LocationID
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*) FROM transfers t"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, err
		}
	}

	query := selectTransfer + whereClause + " ORDER BY t.created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var items []model.Transfer
	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) SetApproved(ctx context.Context, id, approvedBy string) error {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE transfers SET status = $2, approved_by = $3, updated_at = now()
        WHERE id = $1 AND status = $4`,
		id, model.TransferApproved, approvedBy, model.TransferPending)
	if err != nil {
		return fmt.Errorf("approve transfer: %w", err)
	}
	return r.checkTransition(ctx, res, id, "transfer is not pending")
}

func (r *PGRepository) SetRejected(ctx context.Context, id string, reason *string) error {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE transfers SET status = $2, rejection_reason = $3, updated_at = now()
        WHERE id = $1 AND status = $4`,
		id, model.TransferRejected, reason, model.TransferPending)
	if err != nil {
		return fmt.Errorf("reject transfer: %w", err)
	}
	return r.checkTransition(ctx, res, id, "transfer is not pending")
}

func (r *PGRepository) SetCancelled(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE transfers SET status = $2, updated_at = now()
        WHERE id = $1 AND status IN ($3, $4)`,
		id, model.TransferCancelled, model.TransferPending, model.TransferApproved)
	if err != nil {
		return fmt.Errorf("cancel transfer: %w", err)
	}
	return r.checkTransition(ctx, res, id, "transfer already shipped or delivered")
}

func (r *PGRepository) Ship(ctx context.Context, t *model.Transfer) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE transfers SET status = $2, updated_at = now()
        WHERE id = $1 AND status = $3`,
		t.ID, model.TransferInTransit, model.TransferApproved)
	if err != nil {
		return fmt.Errorf("ship transfer: %w", err)
	}
	if err := r.checkTransitionTx(ctx, tx, res, t.ID, "transfer is not approved"); err != nil {
		return err
	}

	if err := invrepo.DebitTx(ctx, tx, t.SourceKey(), t.Quantity); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepository) Deliver(ctx context.Context, t *model.Transfer, deliveredBy string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE transfers SET status = $2, delivered_by = $3, updated_at = now()
        WHERE id = $1 AND status = $4`,
		t.ID, model.TransferDelivered, deliveredBy, model.TransferInTransit)
	if err != nil {
		return fmt.Errorf("deliver transfer: %w", err)
	}
	if err := r.checkTransitionTx(ctx, tx, res, t.ID, "transfer is not in transit"); err != nil {
		return err
	}

	if err := invrepo.CreditTx(ctx, tx, t.DestinationKey(), t.Quantity, t.UnitCost); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepository) checkTransition(ctx context.Context, res sql.Result, id, reason string) error {
	return checkTransition(ctx, r.DB, res, id, reason)
}

func (r *PGRepository) checkTransitionTx(ctx context.Context, tx *sqlx.Tx, res sql.Result, id, reason string) error {
	return checkTransition(ctx, tx, res, id, reason)
}

// checkTransition turns a zero-row guarded update into the precise failure:
// the row is gone (NotFound) or another caller won the gate (InvalidState).
func checkTransition(ctx context.Context, q sqlx.ExtContext, res sql.Result, id, reason string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition transfer: %w", err)
	}
	if rows == 1 {
		return nil
	}
	var current model.TransferStatus
	err = q.QueryRowxContext(ctx, `SELECT status FROM transfers WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFoundf("transfer %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("transition transfer: %w", err)
	}
	return apperr.InvalidStatef("%s (current status: %s)", reason, current)
}
