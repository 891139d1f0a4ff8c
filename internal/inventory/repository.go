package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fauzanhr/pharmastock-service/internal/inventory/dto"
	"github.com/fauzanhr/pharmastock-service/internal/model"
)

// Repository is the ledger store. Every mutating method executes as a single
// atomic unit; Debit in particular is one conditional write, never a read
// followed by a write.
type Repository interface {
	// GetByKey resolves the current line, nil if the key has never been credited.
	GetByKey(ctx context.Context, key model.LineKey) (*model.InventoryLine, error)
	FindAll(ctx context.Context, filters *dto.LineFilters) ([]model.InventoryLine, int, error)

	// MergeUpsert adds quantity to an existing line (creating it on first
	// credit) and overwrites cost/price; expiry and batch only when non-nil.
	MergeUpsert(ctx context.Context, line *model.InventoryLine) error

	// Debit subtracts qty only if the current quantity covers it, failing with
	// an InsufficientStock error otherwise.
	Debit(ctx context.Context, key model.LineKey, qty decimal.Decimal) error

	// Credit adds qty to the line, creating it if absent.
	Credit(ctx context.Context, key model.LineKey, qty, unitCost decimal.Decimal) error
}
