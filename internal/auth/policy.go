package auth

import "github.com/fauzanhr/pharmastock-service/internal/apperr"

// Action enumerates every gated operation in the service.
type Action string

const (
	ActionInventoryUpsert Action = "inventory.upsert"

	ActionTransferCreate  Action = "transfer.create"
	ActionTransferApprove Action = "transfer.approve"
	ActionTransferReject  Action = "transfer.reject"
	ActionTransferShip    Action = "transfer.ship"
	ActionTransferDeliver Action = "transfer.deliver"
	ActionTransferCancel  Action = "transfer.cancel"

	ActionDeliveryCreate   Action = "delivery.create"
	ActionDeliveryConfirm  Action = "delivery.confirm"
	ActionDeliveryAccept   Action = "delivery.accept"
	ActionDeliveryComplete Action = "delivery.complete"
	ActionDeliveryCancel   Action = "delivery.cancel"
	ActionDeliveryDelete   Action = "delivery.delete"

	ActionSaleRecord Action = "sale.record"
	ActionSaleDelete Action = "sale.delete"
)

// Resource carries the location and ownership attributes an authorization
// decision may depend on.
type Resource struct {
	SourceLocationID string
	DestLocationID   string
	// RequestedBy is the user who created the workflow row, for owner-gated
	// operations such as cancel.
	RequestedBy string
}

// Authorize is the single policy function evaluated before every gated
// operation. It is pure: the decision depends only on the caller, the action
// and the resource attributes.
func Authorize(caller Caller, action Action, res Resource) error {
	if caller.Role == RoleAdmin {
		return nil
	}

	switch action {
	case ActionInventoryUpsert:
		if caller.Role == RoleWarehouse && caller.LocationID == res.SourceLocationID {
			return nil
		}

	case ActionTransferCreate:
		if caller.Role == RoleWarehouse && caller.LocationID == res.SourceLocationID {
			return nil
		}
		if caller.Role == RoleBranchManager &&
			(caller.LocationID == res.SourceLocationID || caller.LocationID == res.DestLocationID) {
			return nil
		}

	case ActionTransferApprove, ActionTransferReject:
		// admin only, handled above

	case ActionTransferShip:
		if caller.Role == RoleWarehouse && caller.LocationID == res.SourceLocationID {
			return nil
		}

	case ActionTransferDeliver:
		if caller.Role == RoleBranchManager && caller.LocationID == res.DestLocationID {
			return nil
		}

	case ActionTransferCancel, ActionDeliveryCancel:
		if caller.UserID == res.RequestedBy {
			return nil
		}

	case ActionDeliveryCreate, ActionDeliveryComplete:
		if caller.Role == RoleWarehouse && caller.LocationID == res.SourceLocationID {
			return nil
		}

	case ActionDeliveryConfirm, ActionDeliveryDelete, ActionSaleDelete:
		// admin only, handled above

	case ActionDeliveryAccept:
		if caller.Role == RoleBranchManager && caller.LocationID == res.DestLocationID {
			return nil
		}

	case ActionSaleRecord:
		if caller.LocationID == res.SourceLocationID {
			return nil
		}
	}

	return apperr.Forbiddenf("role %s is not allowed to perform %s on this resource", caller.Role, action)
}
