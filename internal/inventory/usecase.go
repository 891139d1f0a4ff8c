package inventory

import (
	"context"

	"github.com/fauzanhr/pharmastock-service/internal/auth"
	"github.com/fauzanhr/pharmastock-service/internal/inventory/dto"
	"github.com/fauzanhr/pharmastock-service/internal/model"
)

type UseCase interface {
	UpsertLine(ctx context.Context, caller auth.Caller, input *dto.UpsertLineInput) (*model.InventoryLine, error)
	GetLine(ctx context.Context, key model.LineKey) (*model.InventoryLine, error)
	List(ctx context.Context, filters *dto.LineFilters) ([]model.InventoryLine, int, error)
}
