package sale

import (
	"context"

	"github.com/fauzanhr/pharmastock-service/internal/auth"
	"github.com/fauzanhr/pharmastock-service/internal/model"
	"github.com/fauzanhr/pharmastock-service/internal/sale/dto"
)

type UseCase interface {
	Record(ctx context.Context, caller auth.Caller, input *dto.RecordSaleInput) (*model.Sale, error)
	Get(ctx context.Context, id string) (*model.Sale, error)
	List(ctx context.Context, filters *dto.SaleFilters) ([]model.Sale, int, error)
	Delete(ctx context.Context, caller auth.Caller, id string) error
}
