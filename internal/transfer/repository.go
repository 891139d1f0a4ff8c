package transfer

import (
	"context"

	"github.com/fauzanhr/pharmastock-service/internal/model"
	"github.com/fauzanhr/pharmastock-service/internal/transfer/dto"
)

// Repository owns the transfer rows and the transactions that advance them.
// Every transition is a guarded update (WHERE status = expected) so that
// concurrent attempts past the same gate have exactly one winner; Ship and
// Deliver bundle the ledger write into the same transaction as the guard.
type Repository interface {
	// CreateBatch inserts all rows of one client request in a single
	// transaction, all-or-nothing.
	CreateBatch(ctx context.Context, transfers []*model.Transfer) error

	// GetByID returns nil when the transfer does not exist.
	GetByID(ctx context.Context, id string) (*model.Transfer, error)
	FindAll(ctx context.Context, filters *dto.TransferFilters) ([]model.Transfer, int, error)

	// SetApproved moves pending to approved.
	SetApproved(ctx context.Context, id, approvedBy string) error
	// SetRejected moves pending to rejected, storing the optional reason.
	SetRejected(ctx context.Context, id string, reason *string) error
	// SetCancelled moves pending or approved to cancelled. No ledger effect:
	// nothing has been debited before ship.
	SetCancelled(ctx context.Context, id string) error
	// Ship moves approved to in_transit and debits the source line, both in
	// one transaction. The debit is the first and only one for the transfer.
	Ship(ctx context.Context, t *model.Transfer) error
	// Deliver moves in_transit to delivered and credits the destination line,
	// both in one transaction.
	Deliver(ctx context.Context, t *model.Transfer, deliveredBy string) error
}
