package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an immutable record of a direct sale. It is inserted in the same
// transaction as the ledger debit; deleting it (admin only) credits the
// quantity back in the same transaction as the delete.
type Sale struct {
	ID           string          `db:"id" json:"id"`
	LocationID   string          `db:"location_id" json:"location_id"`
	Description  string          `db:"description" json:"description"`
	Unit         string          `db:"unit" json:"unit"`
	Quantity     decimal.Decimal `db:"quantity" json:"quantity"`
	UnitCost     decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	SellingPrice decimal.Decimal `db:"selling_price" json:"selling_price"`
	TotalAmount  decimal.Decimal `db:"total_amount" json:"total_amount"`
	SoldBy       string          `db:"sold_by" json:"sold_by"`
	CustomerName *string         `db:"customer_name" json:"customer_name,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`

	// Joined field (not always populated).
	LocationName string `db:"location_name" json:"location_name,omitempty"`
}

func (s *Sale) Key() LineKey {
	return LineKey{LocationID: s.LocationID, Description: s.Description, Unit: s.Unit}
}
