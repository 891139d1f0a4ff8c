package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferApproved  TransferStatus = "approved"
	TransferRejected  TransferStatus = "rejected"
	TransferInTransit TransferStatus = "in_transit"
	TransferDelivered TransferStatus = "delivered"
	TransferCancelled TransferStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s TransferStatus) Terminal() bool {
	return s == TransferDelivered || s == TransferRejected || s == TransferCancelled
}

// Transfer is one requested item line moving between two locations. A client
// batch of N lines becomes N rows created in one transaction; each row then
// advances through the state machine independently.
type Transfer struct {
	ID                    string          `db:"id" json:"id"`
	FromLocationID        string          `db:"from_location_id" json:"from_location_id"`
	ToLocationID          string          `db:"to_location_id" json:"to_location_id"`
	Description           string          `db:"description" json:"description"`
	Unit                  string          `db:"unit" json:"unit"`
	Quantity              decimal.Decimal `db:"quantity" json:"quantity"`
	UnitCost              decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	Status                TransferStatus  `db:"status" json:"status"`
	RequiresAdminApproval bool            `db:"requires_admin_approval" json:"requires_admin_approval"`
	TransferredBy         string          `db:"transferred_by" json:"transferred_by"`
	ApprovedBy            *string         `db:"approved_by" json:"approved_by,omitempty"`
	DeliveredBy           *string         `db:"delivered_by" json:"delivered_by,omitempty"`
	RejectionReason       *string         `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt             time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time       `db:"updated_at" json:"updated_at"`

	// Joined fields (not always populated).
	FromLocationName string `db:"from_location_name" json:"from_location_name,omitempty"`
	ToLocationName   string `db:"to_location_name" json:"to_location_name,omitempty"`
}

func (t *Transfer) SourceKey() LineKey {
	return LineKey{LocationID: t.FromLocationID, Description: t.Description, Unit: t.Unit}
}

func (t *Transfer) DestinationKey() LineKey {
	return LineKey{LocationID: t.ToLocationID, Description: t.Description, Unit: t.Unit}
}
