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
	"github.com/fauzanhr/pharmastock-service/internal/delivery/dto"
	invrepo "github.com/fauzanhr/pharmastock-service/internal/inventory/repository"
	"github.com/fauzanhr/pharmastock-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, d *model.Delivery) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.Status = model.DeliveryAwaitingAdmin
	d.CreatedAt = now
	d.UpdatedAt = now

	_, err = tx.NamedExecContext(ctx, `
        INSERT INTO deliveries (id, from_location_id, to_location_id, status, transfer_id,
                                created_by, created_at, updated_at)
        VALUES (:id, :from_location_id, :to_location_id, :status, :transfer_id,
                :created_by, :created_at, :updated_at)`, d)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}

	for i := range d.Items {
		item := &d.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.DeliveryID = d.ID
		_, err := tx.NamedExecContext(ctx, `
            INSERT INTO delivery_items (id, delivery_id, description, unit, quantity,
                                        unit_cost, expiry_date, batch_number)
            VALUES (:id, :delivery_id, :description, :unit, :quantity,
                    :unit_cost, :expiry_date, :batch_number)`, item)
		if err != nil {
			return fmt.Errorf("insert delivery item: %w", err)
		}
	}
	return tx.Commit()
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Delivery, error) {
	var d model.Delivery
	err := r.DB.GetContext(ctx, &d, `
        SELECT id, from_location_id, to_location_id, status, transfer_id,
               created_by, admin_confirmed_by, created_at, updated_at
        FROM deliveries WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query delivery: %w", err)
	}
	err = r.DB.SelectContext(ctx, &d.Items, `
        SELECT id, delivery_id, description, unit, quantity, unit_cost, expiry_date, batch_number
        FROM delivery_items WHERE delivery_id = $1 ORDER BY description, unit`, id)
	if err != nil {
		return nil, fmt.Errorf("query delivery items: %w", err)
	}
	return &d, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.DeliveryFilters) ([]model.Delivery, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.LocationID != "" {
		conditions = append(conditions, "(from_location_id = :location_id OR to_location_id = :location_id)")
		args["location_id"] = f.LocationID
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*) FROM deliveries"+whereClause, args)
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
        SELECT id, from_location_id, to_location_id, status, transfer_id,
               created_by, admin_confirmed_by, created_at, updated_at
        FROM deliveries` + whereClause + ` ORDER BY created_at DESC`
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var items []model.Delivery
	if err := nstmt.SelectContext(ctx, &items, args); err != nil {
		return nil, 0, err
	}
	if err := r.loadItems(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}

func (r *PGRepository) loadItems(ctx context.Context, deliveries []model.Delivery) error {
	if len(deliveries) == 0 {
		return nil
	}
	ids := make([]string, len(deliveries))
	index := make(map[string]*model.Delivery, len(deliveries))
	for i := range deliveries {
		ids[i] = deliveries[i].ID
		index[deliveries[i].ID] = &deliveries[i]
	}
	query, args, err := sqlx.In(`
        SELECT id, delivery_id, description, unit, quantity, unit_cost, expiry_date, batch_number
        FROM delivery_items WHERE delivery_id IN (?)`, ids)
	if err != nil {
		return err
	}
	query = r.DB.Rebind(query)
	var items []model.DeliveryItem
	if err := r.DB.SelectContext(ctx, &items, query, args...); err != nil {
		return fmt.Errorf("query delivery items: %w", err)
	}
	for _, item := range items {
		d := index[item.DeliveryID]
		d.Items = append(d.Items, item)
	}
	return nil
}

func (r *PGRepository) AdminConfirm(ctx context.Context, d *model.Delivery, confirmedBy string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE deliveries SET status = $2, admin_confirmed_by = $3, updated_at = now()
        WHERE id = $1 AND status = $4`,
		d.ID, model.DeliveryAdminConfirmed, confirmedBy, model.DeliveryAwaitingAdmin)
	if err != nil {
		return fmt.Errorf("confirm delivery: %w", err)
	}
	if err := checkTransition(ctx, tx, res, d.ID, "delivery is not awaiting admin confirmation"); err != nil {
		return err
	}

	for _, item := range d.Items {
		if err := invrepo.DebitTx(ctx, tx, d.SourceKey(item), item.Quantity); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PGRepository) Accept(ctx context.Context, d *model.Delivery, acceptedBy string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE deliveries SET status = $2, updated_at = now()
        WHERE id = $1 AND status = $3`,
		d.ID, model.DeliveryDelivered, model.DeliveryAdminConfirmed)
	if err != nil {
		return fmt.Errorf("accept delivery: %w", err)
	}
	if err := checkTransition(ctx, tx, res, d.ID, "delivery is not admin-confirmed"); err != nil {
		return err
	}

	for _, item := range d.Items {
		if err := invrepo.CreditTx(ctx, tx, d.DestinationKey(item), item.Quantity, item.UnitCost); err != nil {
			return err
		}
	}

	if d.TransferID != nil {
		_, err := tx.ExecContext(ctx, `
            UPDATE transfers SET status = $2, delivered_by = $3, updated_at = now()
            WHERE id = $1 AND status NOT IN ($4, $5, $6)`,
			*d.TransferID, model.TransferDelivered, acceptedBy,
			model.TransferDelivered, model.TransferRejected, model.TransferCancelled)
		if err != nil {
			return fmt.Errorf("mark linked transfer delivered: %w", err)
		}
	}
	return tx.Commit()
}

func (r *PGRepository) DirectComplete(ctx context.Context, d *model.Delivery, completedBy string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE deliveries SET status = $2, admin_confirmed_by = $3, updated_at = now()
        WHERE id = $1 AND status = $4`,
		d.ID, model.DeliveryDelivered, completedBy, model.DeliveryAwaitingAdmin)
	if err != nil {
		return fmt.Errorf("complete delivery: %w", err)
	}
	if err := checkTransition(ctx, tx, res, d.ID, "delivery cannot be completed directly"); err != nil {
		return err
	}

	for _, item := range d.Items {
		if err := invrepo.DebitTx(ctx, tx, d.SourceKey(item), item.Quantity); err != nil {
			return err
		}
		if err := invrepo.CreditTx(ctx, tx, d.DestinationKey(item), item.Quantity, item.UnitCost); err != nil {
			return err
		}
	}

	if d.TransferID != nil {
		_, err := tx.ExecContext(ctx, `
            UPDATE transfers SET status = $2, delivered_by = $3, updated_at = now()
            WHERE id = $1 AND status NOT IN ($4, $5, $6)`,
			*d.TransferID, model.TransferDelivered, completedBy,
			model.TransferDelivered, model.TransferRejected, model.TransferCancelled)
		if err != nil {
			return fmt.Errorf("mark linked transfer delivered: %w", err)
		}
	}
	return tx.Commit()
}

func (r *PGRepository) Cancel(ctx context.Context, d *model.Delivery) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Lock the row and capture the pre-cancel status in one statement so a
	// racing transition cannot slip between the check and the update.
	var previous model.DeliveryStatus
	err = tx.QueryRowxContext(ctx, `
        UPDATE deliveries d SET status = $2, updated_at = now()
        FROM (SELECT id, status FROM deliveries WHERE id = $1 FOR UPDATE) old
        WHERE d.id = old.id AND old.status IN ($3, $4)
        RETURNING old.status`,
		d.ID, model.DeliveryCancelled, model.DeliveryAwaitingAdmin, model.DeliveryAdminConfirmed).Scan(&previous)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return statusError(ctx, tx, d.ID, "delivery already delivered or cancelled")
		}
		return fmt.Errorf("cancel delivery: %w", err)
	}

	// An admin-confirmed delivery already holds the source debit; restore it.
	if previous == model.DeliveryAdminConfirmed {
		for _, item := range d.Items {
			if err := invrepo.CreditTx(ctx, tx, d.SourceKey(item), item.Quantity, item.UnitCost); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `
        DELETE FROM deliveries WHERE id = $1 AND status IN ($2, $3)`,
		id, model.DeliveryAwaitingAdmin, model.DeliveryCancelled)
	if err != nil {
		return fmt.Errorf("delete delivery: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete delivery: %w", err)
	}
	if rows == 0 {
		return statusError(ctx, r.DB, id, "only unconfirmed or cancelled deliveries can be deleted")
	}
	return nil
}

func checkTransition(ctx context.Context, q sqlx.ExtContext, res sql.Result, id, reason string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition delivery: %w", err)
	}
	if rows == 1 {
		return nil
	}
	return statusError(ctx, q, id, reason)
}

func statusError(ctx context.Context, q sqlx.ExtContext, id, reason string) error {
	var current model.DeliveryStatus
	err := q.QueryRowxContext(ctx, `SELECT status FROM deliveries WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFoundf("delivery %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("transition delivery: %w", err)
	}
	return apperr.InvalidStatef("%s (current status: %s)", reason, current)
}
