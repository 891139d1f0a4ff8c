package delivery

import (
	"context"

	"github.com/fauzanhr/pharmastock-service/internal/delivery/dto"
	"github.com/fauzanhr/pharmastock-service/internal/model"
)

// Repository owns delivery rows, their items, and the transactions that move
// the ledger with them. The canonical machine is awaiting_admin →
// admin_confirmed (source debited) → delivered (destination credited);
// DirectComplete is the one-step shortcut from awaiting_admin.
type Repository interface {
	// Create inserts the delivery and all its items in one transaction.
	Create(ctx context.Context, d *model.Delivery) error

	// GetByID returns the delivery with its items, nil when absent.
	GetByID(ctx context.Context, id string) (*model.Delivery, error)
	FindAll(ctx context.Context, filters *dto.DeliveryFilters) ([]model.Delivery, int, error)

	// AdminConfirm moves awaiting_admin to admin_confirmed and debits the
	// source line of every item, all in one transaction.
	AdminConfirm(ctx context.Context, d *model.Delivery, confirmedBy string) error

	// Accept moves admin_confirmed to delivered, credits the destination for
	// every item, and marks a linked transfer delivered, all in one
	// transaction.
	Accept(ctx context.Context, d *model.Delivery, acceptedBy string) error

	// DirectComplete moves awaiting_admin straight to delivered, performing
	// the debit/credit pair for every item in one transaction.
	DirectComplete(ctx context.Context, d *model.Delivery, completedBy string) error

	// Cancel moves any pre-delivered status to cancelled; when the source was
	// already debited (admin_confirmed) the quantities are credited back.
	Cancel(ctx context.Context, d *model.Delivery) error

	// Delete removes a delivery and its items. Only awaiting_admin or
	// cancelled deliveries may be deleted; no ledger effect.
	Delete(ctx context.Context, id string) error
}
