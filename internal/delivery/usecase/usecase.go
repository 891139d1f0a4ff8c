package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fauzanhr/pharmastock-service/internal/apperr"
	"github.com/fauzanhr/pharmastock-service/internal/auth"
	"github.com/fauzanhr/pharmastock-service/internal/delivery"
	"github.com/fauzanhr/pharmastock-service/internal/delivery/dto"
	"github.com/fauzanhr/pharmastock-service/internal/inventory"
	"github.com/fauzanhr/pharmastock-service/internal/location"
	"github.com/fauzanhr/pharmastock-service/internal/metrics"
	"github.com/fauzanhr/pharmastock-service/internal/model"
	"github.com/fauzanhr/pharmastock-service/internal/notify"
	"github.com/fauzanhr/pharmastock-service/internal/transfer"
)

type deliveryUseCase struct {
	repo      delivery.Repository
	ledger    inventory.Repository
	transfers transfer.Repository
	locations location.Repository
	notifier  notify.Notifier
	auditor   notify.Auditor
	logger    *zap.Logger
}

func NewDeliveryUseCase(
	repo delivery.Repository,
	ledger inventory.Repository,
	transfers transfer.Repository,
	locations location.Repository,
	notifier notify.Notifier,
	auditor notify.Auditor,
	logger *zap.Logger,
) delivery.UseCase {
	return &deliveryUseCase{
		repo:      repo,
		ledger:    ledger,
		transfers: transfers,
		locations: locations,
		notifier:  notifier,
		auditor:   auditor,
		logger:    logger,
	}
}

func (uc *deliveryUseCase) Create(ctx context.Context, caller auth.Caller, input *dto.CreateDeliveryInput) (*model.Delivery, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, auth.ActionDeliveryCreate, auth.Resource{
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

	if input.TransferID != nil {
		t, err := uc.transfers.GetByID(ctx, *input.TransferID)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, apperr.NotFoundf("transfer %s not found", *input.TransferID)
		}
		// Once a transfer ships, its own path owns the ledger movement; a
		// delivery confirming it on top would debit the source a second time.
		if t.Status != model.TransferPending && t.Status != model.TransferApproved {
			return nil, apperr.InvalidStatef("linked transfer is already %s", t.Status)
		}
		if t.FromLocationID != input.FromLocationID || t.ToLocationID != input.ToLocationID {
			return nil, apperr.Validationf("delivery endpoints do not match the linked transfer")
		}
	}

	d := &model.Delivery{
		FromLocationID: input.FromLocationID,
		ToLocationID:   input.ToLocationID,
		TransferID:     input.TransferID,
		CreatedBy:      caller.UserID,
	}
	for _, itemInput := range input.Items {
		line, err := uc.ledger.GetByKey(ctx, model.LineKey{
			LocationID:  input.FromLocationID,
			Description: itemInput.Description,
			Unit:        itemInput.Unit,
		})
		if err != nil {
			return nil, err
		}
		if line == nil {
			return nil, apperr.NotFoundf("no inventory line for %s / %s at %s", itemInput.Description, itemInput.Unit, from.Name)
		}
		if line.Quantity.LessThan(itemInput.Quantity) {
			return nil, apperr.InsufficientStock(line.Quantity, itemInput.Quantity)
		}
		d.Items = append(d.Items, model.DeliveryItem{
			Description: itemInput.Description,
			Unit:        itemInput.Unit,
			Quantity:    itemInput.Quantity,
			UnitCost:    line.UnitCost,
			ExpiryDate:  itemInput.ExpiryDate,
			BatchNumber: itemInput.BatchNumber,
		})
	}

	if err := uc.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	metrics.WorkflowTransitions.WithLabelValues("delivery", string(model.DeliveryAwaitingAdmin)).Inc()
	uc.auditor.Record(ctx, notify.AuditRecord{
		UserID:   caller.UserID,
		Action:   "delivery_create",
		Table:    "deliveries",
		RecordID: d.ID,
		NewValues: map[string]any{
			"status": string(d.Status),
			"from":   d.FromLocationID,
			"to":     d.ToLocationID,
			"items":  len(d.Items),
		},
	})
	uc.notifier.Notify(ctx, notify.Event{
		Target:  string(auth.RoleAdmin),
		Type:    "delivery_created",
		Title:   "Delivery awaiting confirmation",
		Message: fmt.Sprintf("%d item(s) from %s to %s await admin confirmation", len(d.Items), from.Name, to.Name),
		Link:    "/deliveries/" + d.ID,
	})
	return d, nil
}

func (uc *deliveryUseCase) Get(ctx context.Context, id string) (*model.Delivery, error) {
	d, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFoundf("delivery %s not found", id)
	}
	return d, nil
}

func (uc *deliveryUseCase) List(ctx context.Context, filters *dto.DeliveryFilters) ([]model.Delivery, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *deliveryUseCase) AdminConfirm(ctx context.Context, caller auth.Caller, id string) (*model.Delivery, error) {
	d, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, auth.ActionDeliveryConfirm, auth.Resource{
		SourceLocationID: d.FromLocationID,
		DestLocationID:   d.ToLocationID,
	}); err != nil {
		return nil, err
	}

	if err := uc.repo.AdminConfirm(ctx, d, caller.UserID); err != nil {
		if apperr.IsKind(err, apperr.KindInsufficientStock) {
			metrics.LedgerDebits.WithLabelValues("insufficient").Inc()
		}
		return nil, err
	}
	metrics.LedgerDebits.WithLabelValues("ok").Inc()
	metrics.WorkflowTransitions.WithLabelValues("delivery", string(model.DeliveryAdminConfirmed)).Inc()
	uc.audit(ctx, caller, "delivery_confirm", d, model.DeliveryAdminConfirmed)
	uc.notifier.Notify(ctx, notify.Event{
		Target:  d.ToLocationID,
		Type:    "delivery_confirmed",
		Title:   "Incoming delivery",
		Message: fmt.Sprintf("A delivery of %d item(s) has been dispatched to your location", len(d.Items)),
		Link:    "/deliveries/" + d.ID,
	})
	return uc.Get(ctx, id)
}

func (uc *deliveryUseCase) Accept(ctx context.Context, caller auth.Caller, id string) (*model.Delivery, error) {
	d, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, auth.ActionDeliveryAccept, auth.Resource{
		SourceLocationID: d.FromLocationID,
		DestLocationID:   d.ToLocationID,
	}); err != nil {
		return nil, err
	}

	if err := uc.repo.Accept(ctx, d, caller.UserID); err != nil {
		return nil, err
	}
	metrics.LedgerCredits.Inc()
	metrics.WorkflowTransitions.WithLabelValues("delivery", string(model.DeliveryDelivered)).Inc()
	uc.audit(ctx, caller, "delivery_accept", d, model.DeliveryDelivered)
	uc.notifier.Notify(ctx, notify.Event{
		Target:  d.FromLocationID,
		Type:    "delivery_accepted",
		Title:   "Delivery received",
		Message: fmt.Sprintf("Delivery of %d item(s) was accepted at the destination", len(d.Items)),
		Link:    "/deliveries/" + d.ID,
	})
	return uc.Get(ctx, id)
}

func (uc *deliveryUseCase) DirectComplete(ctx context.Context, caller auth.Caller, id string) (*model.Delivery, error) {
	d, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, auth.ActionDeliveryComplete, auth.Resource{
		SourceLocationID: d.FromLocationID,
		DestLocationID:   d.ToLocationID,
	}); err != nil {
		return nil, err
	}

	if err := uc.repo.DirectComplete(ctx, d, caller.UserID); err != nil {
		if apperr.IsKind(err, apperr.KindInsufficientStock) {
			metrics.LedgerDebits.WithLabelValues("insufficient").Inc()
		}
		return nil, err
	}
	metrics.LedgerDebits.WithLabelValues("ok").Inc()
	metrics.LedgerCredits.Inc()
	metrics.WorkflowTransitions.WithLabelValues("delivery", string(model.DeliveryDelivered)).Inc()
	uc.audit(ctx, caller, "delivery_complete", d, model.DeliveryDelivered)
	uc.notifier.Notify(ctx, notify.Event{
		Target:  d.ToLocationID,
		Type:    "delivery_completed",
		Title:   "Delivery completed",
		Message: fmt.Sprintf("Delivery of %d item(s) was completed and stock credited", len(d.Items)),
		Link:    "/deliveries/" + d.ID,
	})
	return uc.Get(ctx, id)
}

func (uc *deliveryUseCase) Cancel(ctx context.Context, caller auth.Caller, id string) (*model.Delivery, error) {
	d, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, auth.ActionDeliveryCancel, auth.Resource{
		SourceLocationID: d.FromLocationID,
		DestLocationID:   d.ToLocationID,
		RequestedBy:      d.CreatedBy,
	}); err != nil {
		return nil, err
	}

	if err := uc.repo.Cancel(ctx, d); err != nil {
		return nil, err
	}
	metrics.WorkflowTransitions.WithLabelValues("delivery", string(model.DeliveryCancelled)).Inc()
	uc.audit(ctx, caller, "delivery_cancel", d, model.DeliveryCancelled)
	uc.notifier.Notify(ctx, notify.Event{
		Target:  string(auth.RoleAdmin),
		Type:    "delivery_cancelled",
		Title:   "Delivery cancelled",
		Message: fmt.Sprintf("Delivery %s was cancelled", d.ID),
		Link:    "/deliveries/" + d.ID,
	})
	return uc.Get(ctx, id)
}

func (uc *deliveryUseCase) Delete(ctx context.Context, caller auth.Caller, id string) error {
	d, err := uc.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.Authorize(caller, auth.ActionDeliveryDelete, auth.Resource{
		SourceLocationID: d.FromLocationID,
		DestLocationID:   d.ToLocationID,
	}); err != nil {
		return err
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.auditor.Record(ctx, notify.AuditRecord{
		UserID:    caller.UserID,
		Action:    "delivery_delete",
		Table:     "deliveries",
		RecordID:  d.ID,
		OldValues: map[string]any{"status": string(d.Status), "items": len(d.Items)},
	})
	return nil
}

func (uc *deliveryUseCase) audit(ctx context.Context, caller auth.Caller, action string, d *model.Delivery, to model.DeliveryStatus) {
	uc.auditor.Record(ctx, notify.AuditRecord{
		UserID:    caller.UserID,
		Action:    action,
		Table:     "deliveries",
		RecordID:  d.ID,
		OldValues: map[string]any{"status": string(d.Status)},
		NewValues: map[string]any{"status": string(to)},
	})
}
