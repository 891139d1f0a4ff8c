package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fauzanhr/pharmastock-service/internal/apperr"
	"github.com/fauzanhr/pharmastock-service/internal/auth"
	"github.com/fauzanhr/pharmastock-service/internal/location"
	"github.com/fauzanhr/pharmastock-service/internal/metrics"
	"github.com/fauzanhr/pharmastock-service/internal/model"
	"github.com/fauzanhr/pharmastock-service/internal/notify"
	"github.com/fauzanhr/pharmastock-service/internal/sale"
	"github.com/fauzanhr/pharmastock-service/internal/sale/dto"
)

type saleUseCase struct {
	repo      sale.Repository
	locations location.Repository
	auditor   notify.Auditor
	logger    *zap.Logger
}

func NewSaleUseCase(repo sale.Repository, locations location.Repository, auditor notify.Auditor, logger *zap.Logger) sale.UseCase {
	return &saleUseCase{
		repo:      repo,
		locations: locations,
		auditor:   auditor,
		logger:    logger,
	}
}

func (uc *saleUseCase) Record(ctx context.Context, caller auth.Caller, input *dto.RecordSaleInput) (*model.Sale, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, auth.ActionSaleRecord, auth.Resource{SourceLocationID: input.LocationID}); err != nil {
		return nil, err
	}
	loc, err := uc.locations.GetByID(ctx, input.LocationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, apperr.NotFoundf("location %s not found", input.LocationID)
	}

	s := &model.Sale{
		LocationID:   input.LocationID,
		Description:  input.Description,
		Unit:         input.Unit,
		Quantity:     input.Quantity,
		SellingPrice: input.SellingPrice,
		TotalAmount:  input.Quantity.Mul(input.SellingPrice),
		SoldBy:       caller.UserID,
		CustomerName: input.CustomerName,
	}
	if err := uc.repo.Create(ctx, s); err != nil {
		if apperr.IsKind(err, apperr.KindInsufficientStock) {
			metrics.LedgerDebits.WithLabelValues("insufficient").Inc()
		}
		return nil, err
	}
	metrics.LedgerDebits.WithLabelValues("ok").Inc()

	uc.auditor.Record(ctx, notify.AuditRecord{
		UserID:   caller.UserID,
		Action:   "sale_record",
		Table:    "sales",
		RecordID: s.ID,
		NewValues: map[string]any{
			"location_id": s.LocationID,
			"item":        fmt.Sprintf("%s (%s)", s.Description, s.Unit),
			"quantity":    s.Quantity.String(),
			"total":       s.TotalAmount.String(),
		},
	})
	return s, nil
}

func (uc *saleUseCase) Get(ctx context.Context, id string) (*model.Sale, error) {
	s, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperr.NotFoundf("sale %s not found", id)
	}
	return s, nil
}

func (uc *saleUseCase) List(ctx context.Context, filters *dto.SaleFilters) ([]model.Sale, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *saleUseCase) Delete(ctx context.Context, caller auth.Caller, id string) error {
	if err := auth.Authorize(caller, auth.ActionSaleDelete, auth.Resource{}); err != nil {
		return err
	}
	s, err := uc.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	metrics.LedgerCredits.Inc()
	uc.auditor.Record(ctx, notify.AuditRecord{
		UserID:   caller.UserID,
		Action:   "sale_delete",
		Table:    "sales",
		RecordID: s.ID,
		OldValues: map[string]any{
			"location_id": s.LocationID,
			"item":        fmt.Sprintf("%s (%s)", s.Description, s.Unit),
			"quantity":    s.Quantity.String(),
			"restored":    s.Quantity.String(),
		},
	})
	return nil
}
