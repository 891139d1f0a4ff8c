package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fauzanhr/pharmastock-service/internal/apperr"
	"github.com/fauzanhr/pharmastock-service/internal/auth"
	"github.com/fauzanhr/pharmastock-service/internal/inventory"
	"github.com/fauzanhr/pharmastock-service/internal/location"
	"github.com/fauzanhr/pharmastock-service/internal/metrics"
	"github.com/fauzanhr/pharmastock-service/internal/model"
	"github.com/fauzanhr/pharmastock-service/internal/notify"
	"github.com/fauzanhr/pharmastock-service/internal/transfer"
	"github.com/fauzanhr/pharmastock-service/internal/transfer/dto"
)

type transferUseCase struct {
	repo      transfer.Repository
	ledger    inventory.Repository
	locations location.Repository
	notifier  notify.Notifier
	auditor   notify.Auditor
	logger    *zap.Logger
}

func NewTransferUseCase(
	repo transfer.Repository,
	ledger inventory.Repository,
	locations location.Repository,
	notifier notify.Notifier,
	auditor notify.Auditor,
	logger *zap.Logger,
) transfer.UseCase {
	return &transferUseCase{
		repo:      repo,
		ledger:    ledger,
		locations: locations,
		notifier:  notifier,
		auditor:   auditor,
		logger:    logger,
	}
}

func (uc *transferUseCase) Create(ctx context.Context, caller auth.Caller, input *dto.CreateTransferInput) ([]model.Transfer, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, auth.ActionTransferCreate, auth.Resource{
		SourceLocationID: input.FromLocationID,
		DestLocationID:   input.ToLocationID,
	}); err != nil {
		return nil, err
	}

	from, err := uc.locations.GetByID(ctx, input.FromLocationID)
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, apperr.NotFoundf("location %s not found", input.FromLocationID)
	}
	to, err := uc.locations.GetByID(ctx, input.ToLocationID)
	if err != nil {
		return nil, err
	}
	if to == nil {
		return nil, apperr.NotFoundf("location %s not found", input.ToLocationID)
	}

	// A branch manager requesting stock to their own branch from a warehouse
	// may not see the warehouse ledger; availability is enforced at approval
	// and ship instead.
	skipAvailability := caller.Role == auth.RoleBranchManager &&
		caller.LocationID == input.ToLocationID &&
		from.Type == model.LocationWarehouse

	transfers := make([]*model.Transfer, 0, len(input.Lines))
	for _, lineInput := range input.Lines {
		unitCost := lineInput.UnitCost
		if !skipAvailability {
			line, err := uc.ledger.GetByKey(ctx, model.LineKey{
				LocationID:  input.FromLocationID,
				Description: lineInput.Description,
				Unit:        lineInput.Unit,
			})
			if err != nil {
				return nil, err
			}
			if line == nil || line.Quantity.LessThan(lineInput.Quantity) {
				available := decimalZeroIfNil(line)
				return nil, apperr.InsufficientStock(available, lineInput.Quantity)
			}
			unitCost = line.UnitCost
		}
		transfers = append(transfers, &model.Transfer{
			FromLocationID:        input.FromLocationID,
			ToLocationID:          input.ToLocationID,
			Description:           lineInput.Description,
			Unit:                  lineInput.Unit,
			Quantity:              lineInput.Quantity,
			UnitCost:              unitCost,
			RequiresAdminApproval: caller.Role != auth.RoleAdmin,
			TransferredBy:         caller.UserID,
		})
	}

	if err := uc.repo.CreateBatch(ctx, transfers); err != nil {
		return nil, err
	}

	created := make([]model.Transfer, 0, len(transfers))
	for _, t := range transfers {
		created = append(created, *t)
		metrics.WorkflowTransitions.WithLabelValues("transfer", string(model.TransferPending)).Inc()
		uc.auditor.Record(ctx, notify.AuditRecord{
			UserID:   caller.UserID,
			Action:   "transfer_create",
			Table:    "transfers",
			RecordID: t.ID,
			NewValues: map[string]any{
				"status":   string(t.Status),
				"from":     t.FromLocationID,
				"to":       t.ToLocationID,
				"item":     t.Description,
				"quantity": t.Quantity.String(),
			},
		})
	}
	uc.notifier.Notify(ctx, notify.Event{
		Target:  string(auth.RoleAdmin),
		Type:    "transfer_requested",
		Title:   "Transfer request pending approval",
		Message: fmt.Sprintf("%d line(s) requested from %s to %s", len(created), from.Name, to.Name),
		Link:    "/transfers?status=pending",
	})
	return created, nil
}

func (uc *transferUseCase) Get(ctx context.Context, id string) (*model.Transfer, error) {
	t, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.NotFoundf("transfer %s not found", id)
	}
	return t, nil
}

func (uc *transferUseCase) List(ctx context.Context, filters *dto.TransferFilters) ([]model.Transfer, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *transferUseCase) Approve(ctx context.Context, caller auth.Caller, id string) (*model.Transfer, error) {
	t, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, auth.ActionTransferApprove, auth.Resource{
		SourceLocationID: t.FromLocationID,
		DestLocationID:   t.ToLocationID,
	}); err != nil {
		return nil, err
	}
	if t.Status != model.TransferPending {
		return nil, apperr.InvalidStatef("transfer is not pending (current status: %s)", t.Status)
	}

	// Stock may have been consumed since the request was created.
	line, err := uc.ledger.GetByKey(ctx, t.SourceKey())
	if err != nil {
		return nil, err
	}
	if line == nil || line.Quantity.LessThan(t.Quantity) {
		return nil, apperr.InsufficientStock(decimalZeroIfNil(line), t.Quantity)
	}

	if err := uc.repo.SetApproved(ctx, id, caller.UserID); err != nil {
		return nil, err
	}
	metrics.WorkflowTransitions.WithLabelValues("transfer", string(model.TransferApproved)).Inc()
	uc.audit(ctx, caller, "transfer_approve", t, model.TransferApproved)
	uc.notifier.Notify(ctx, notify.Event{
		Target:  t.FromLocationID,
		Type:    "transfer_approved",
		Title:   "Transfer approved",
		Message: fmt.Sprintf("Transfer of %s %s %s is approved and ready to ship", t.Quantity, t.Unit, t.Description),
		Link:    "/transfers/" + t.ID,
	})
	return uc.Get(ctx, id)
}

func (uc *transferUseCase) Reject(ctx context.Context, caller auth.Caller, id string, reason string) (*model.Transfer, error) {
	t, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, auth.ActionTransferReject, auth.Resource{
		SourceLocationID: t.FromLocationID,
		DestLocationID:   t.ToLocationID,
	}); err != nil {
		return nil, err
	}

	var stored *string
	if reason != "" {
		stored = &reason
	}
	if err := uc.repo.SetRejected(ctx, id, stored); err != nil {
		return nil, err
	}
	metrics.WorkflowTransitions.WithLabelValues("transfer", string(model.TransferRejected)).Inc()
	uc.audit(ctx, caller, "transfer_reject", t, model.TransferRejected)
	uc.notifier.Notify(ctx, notify.Event{
		Target:  t.ToLocationID,
		Type:    "transfer_rejected",
		Title:   "Transfer rejected",
		Message: fmt.Sprintf("Transfer of %s %s %s was rejected: %s", t.Quantity, t.Unit, t.Description, reason),
		Link:    "/transfers/" + t.ID,
	})
	return uc.Get(ctx, id)
}

func (uc *transferUseCase) Ship(ctx context.Context, caller auth.Caller, id string) (*model.Transfer, error) {
	t, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, auth.ActionTransferShip, auth.Resource{
		SourceLocationID: t.FromLocationID,
		DestLocationID:   t.ToLocationID,
	}); err != nil {
		return nil, err
	}

	if err := uc.repo.Ship(ctx, t); err != nil {
		if apperr.IsKind(err, apperr.KindInsufficientStock) {
			metrics.LedgerDebits.WithLabelValues("insufficient").Inc()
		}
		return nil, err
	}
	metrics.LedgerDebits.WithLabelValues("ok").Inc()
	metrics.WorkflowTransitions.WithLabelValues("transfer", string(model.TransferInTransit)).Inc()
	uc.audit(ctx, caller, "transfer_ship", t, model.TransferInTransit)
	uc.notifier.Notify(ctx, notify.Event{
		Target:  t.ToLocationID,
		Type:    "transfer_shipped",
		Title:   "Transfer in transit",
		Message: fmt.Sprintf("%s %s %s shipped from %s", t.Quantity, t.Unit, t.Description, t.FromLocationName),
		Link:    "/transfers/" + t.ID,
	})
	return uc.Get(ctx, id)
}

func (uc *transferUseCase) Deliver(ctx context.Context, caller auth.Caller, id string) (*model.Transfer, error) {
	t, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, auth.ActionTransferDeliver, auth.Resource{
		SourceLocationID: t.FromLocationID,
		DestLocationID:   t.ToLocationID,
	}); err != nil {
		return nil, err
	}

	if err := uc.repo.Deliver(ctx, t, caller.UserID); err != nil {
		return nil, err
	}
	metrics.LedgerCredits.Inc()
	metrics.WorkflowTransitions.WithLabelValues("transfer", string(model.TransferDelivered)).Inc()
	uc.audit(ctx, caller, "transfer_deliver", t, model.TransferDelivered)
	uc.notifier.Notify(ctx, notify.Event{
		Target:  t.FromLocationID,
		Type:    "transfer_delivered",
		Title:   "Transfer delivered",
		Message: fmt.Sprintf("%s %s %s received at %s", t.Quantity, t.Unit, t.Description, t.ToLocationName),
		Link:    "/transfers/" + t.ID,
	})
	return uc.Get(ctx, id)
}

func (uc *transferUseCase) Cancel(ctx context.Context, caller auth.Caller, id string) (*model.Transfer, error) {
	t, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, auth.ActionTransferCancel, auth.Resource{
		SourceLocationID: t.FromLocationID,
		DestLocationID:   t.ToLocationID,
		RequestedBy:      t.TransferredBy,
	}); err != nil {
		return nil, err
	}

	if err := uc.repo.SetCancelled(ctx, id); err != nil {
		return nil, err
	}
	metrics.WorkflowTransitions.WithLabelValues("transfer", string(model.TransferCancelled)).Inc()
	uc.audit(ctx, caller, "transfer_cancel", t, model.TransferCancelled)
	uc.notifier.Notify(ctx, notify.Event{
		Target:  string(auth.RoleAdmin),
		Type:    "transfer_cancelled",
		Title:   "Transfer cancelled",
		Message: fmt.Sprintf("Transfer of %s %s %s was cancelled", t.Quantity, t.Unit, t.Description),
		Link:    "/transfers/" + t.ID,
	})
	return uc.Get(ctx, id)
}

func (uc *transferUseCase) audit(ctx context.Context, caller auth.Caller, action string, t *model.Transfer, to model.TransferStatus) {
	uc.auditor.Record(ctx, notify.AuditRecord{
		UserID:    caller.UserID,
		Action:    action,
		Table:     "transfers",
		RecordID:  t.ID,
		OldValues: map[string]any{"status": string(t.Status)},
		NewValues: map[string]any{"status": string(to)},
	})
}

func decimalZeroIfNil(line *model.InventoryLine) decimal.Decimal {
	if line == nil {
		return decimal.Zero
	}
	return line.Quantity
}
