package location

import (
	"context"

	"github.com/fauzanhr/pharmastock-service/internal/model"
)

// Repository is read-only: locations are administered by an external service
// and only referenced here.
type Repository interface {
	// GetByID returns nil when the location does not exist.
	GetByID(ctx context.Context, id string) (*model.Location, error)
	FindAll(ctx context.Context) ([]model.Location, error)
}
