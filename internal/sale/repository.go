package sale

import (
	"context"

	"github.com/fauzanhr/pharmastock-service/internal/model"
	"github.com/fauzanhr/pharmastock-service/internal/sale/dto"
)

type Repository interface {
	// Create debits the ledger line and inserts the sale row in one
	// transaction; the debit is a single conditional write and the sale's
	// unit cost is copied from the line at that moment.
	Create(ctx context.Context, s *model.Sale) error

	// GetByID returns nil when the sale does not exist.
	GetByID(ctx context.Context, id string) (*model.Sale, error)
	FindAll(ctx context.Context, filters *dto.SaleFilters) ([]model.Sale, int, error)

	// Delete removes the sale and credits its quantity back to the original
	// line in one transaction, returning the removed row.
	Delete(ctx context.Context, id string) (*model.Sale, error)
}
