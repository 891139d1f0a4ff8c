package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryStatus string

const (
	DeliveryAwaitingAdmin  DeliveryStatus = "awaiting_admin"
	DeliveryAdminConfirmed DeliveryStatus = "admin_confirmed"
	DeliveryDelivered      DeliveryStatus = "delivered"
	DeliveryCancelled      DeliveryStatus = "cancelled"
)

func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryDelivered || s == DeliveryCancelled
}

// Delivery is a shipment-confirmation document, optionally linked 1:1 to a
// Transfer. The source ledger is debited when the admin confirms dispatch and
// the destination credited when the receiving branch accepts.
type Delivery struct {
	ID               string         `db:"id" json:"id"`
	FromLocationID   string         `db:"from_location_id" json:"from_location_id"`
	ToLocationID     string         `db:"to_location_id" json:"to_location_id"`
	Status           DeliveryStatus `db:"status" json:"status"`
	TransferID       *string        `db:"transfer_id" json:"transfer_id,omitempty"`
	CreatedBy        string         `db:"created_by" json:"created_by"`
	AdminConfirmedBy *string        `db:"admin_confirmed_by" json:"admin_confirmed_by,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`

	Items []DeliveryItem `json:"items"`
}

type DeliveryItem struct {
	ID          string          `db:"id" json:"id"`
	DeliveryID  string          `db:"delivery_id" json:"delivery_id"`
	Description string          `db:"description" json:"description"`
	Unit        string          `db:"unit" json:"unit"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitCost    decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	ExpiryDate  *time.Time      `db:"expiry_date" json:"expiry_date,omitempty"`
	BatchNumber *string         `db:"batch_number" json:"batch_number,omitempty"`
}

func (d *Delivery) SourceKey(item DeliveryItem) LineKey {
	return LineKey{LocationID: d.FromLocationID, Description: item.Description, Unit: item.Unit}
}

func (d *Delivery) DestinationKey(item DeliveryItem) LineKey {
	return LineKey{LocationID: d.ToLocationID, Description: item.Description, Unit: item.Unit}
}
