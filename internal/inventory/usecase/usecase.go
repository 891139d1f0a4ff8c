package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/fauzanhr/pharmastock-service/internal/apperr"
	"github.com/fauzanhr/pharmastock-service/internal/auth"
	"github.com/fauzanhr/pharmastock-service/internal/inventory"
	"github.com/fauzanhr/pharmastock-service/internal/inventory/dto"
	"github.com/fauzanhr/pharmastock-service/internal/location"
	"github.com/fauzanhr/pharmastock-service/internal/metrics"
	"github.com/fauzanhr/pharmastock-service/internal/model"
	"github.com/fauzanhr/pharmastock-service/internal/notify"
)

type inventoryUseCase struct {
	repo      inventory.Repository
	locations location.Repository
	auditor   notify.Auditor
	logger    *zap.Logger
}

func NewInventoryUseCase(repo inventory.Repository, locations location.Repository, auditor notify.Auditor, logger *zap.Logger) inventory.UseCase {
	return &inventoryUseCase{
		repo:      repo,
		locations: locations,
		auditor:   auditor,
		logger:    logger,
	}
}

func (uc *inventoryUseCase) UpsertLine(ctx context.Context, caller auth.Caller, input *dto.UpsertLineInput) (*model.InventoryLine, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, auth.ActionInventoryUpsert, auth.Resource{SourceLocationID: input.LocationID}); err != nil {
		return nil, err
	}
	loc, err := uc.locations.GetByID(ctx, input.LocationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, apperr.NotFoundf("location %s not found", input.LocationID)
	}

	line := &model.InventoryLine{
		LocationID:            input.LocationID,
		Description:           input.Description,
		Unit:                  input.Unit,
		Quantity:              input.Quantity,
		UnitCost:              input.UnitCost,
		SuggestedSellingPrice: input.SuggestedSellingPrice,
		ExpiryDate:            input.ExpiryDate,
		BatchNumber:           input.BatchNumber,
	}
	if err := uc.repo.MergeUpsert(ctx, line); err != nil {
		return nil, err
	}
	metrics.LedgerCredits.Inc()

	current, err := uc.repo.GetByKey(ctx, model.LineKey{
		LocationID:  input.LocationID,
		Description: input.Description,
		Unit:        input.Unit,
	})
	if err != nil {
		return nil, err
	}
	if current == nil {
		// The line vanished between the upsert and the read-back.
		return nil, apperr.NotFoundf("no inventory line for %s / %s at location %s", input.Description, input.Unit, input.LocationID)
	}

	uc.auditor.Record(ctx, notify.AuditRecord{
		UserID:   caller.UserID,
		Action:   "inventory_upsert",
		Table:    "inventory",
		RecordID: current.ID,
		NewValues: map[string]any{
			"location_id": input.LocationID,
			"description": input.Description,
			"unit":        input.Unit,
			"added":       input.Quantity.String(),
			"quantity":    current.Quantity.String(),
		},
	})
	return current, nil
}

func (uc *inventoryUseCase) GetLine(ctx context.Context, key model.LineKey) (*model.InventoryLine, error) {
	line, err := uc.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, apperr.NotFoundf("no inventory line for %s / %s at location %s", key.Description, key.Unit, key.LocationID)
	}
	return line, nil
}

func (uc *inventoryUseCase) List(ctx context.Context, filters *dto.LineFilters) ([]model.InventoryLine, int, error) {
	return uc.repo.FindAll(ctx, filters)
}
