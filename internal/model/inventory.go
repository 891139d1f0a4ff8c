package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryLine is one row of the stock ledger. At most one line exists per
// (location_id, description, unit); quantity never goes below zero.
type InventoryLine struct {
	ID                    string          `db:"id" json:"id"`
	LocationID            string          `db:"location_id" json:"location_id"`
	Description           string          `db:"description" json:"description"`
	Unit                  string          `db:"unit" json:"unit"`
	Quantity              decimal.Decimal `db:"quantity" json:"quantity"`
	UnitCost              decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	SuggestedSellingPrice decimal.Decimal `db:"suggested_selling_price" json:"suggested_selling_price"`
	ExpiryDate            *time.Time      `db:"expiry_date" json:"expiry_date,omitempty"`
	BatchNumber           *string         `db:"batch_number" json:"batch_number,omitempty"`
	CreatedAt             time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time       `db:"updated_at" json:"updated_at"`

	// Joined field (not always populated).
	LocationName string `db:"location_name" json:"location_name,omitempty"`
}

// LineKey identifies a ledger line by value. Workflow rows reference lines this
// way rather than by foreign key, so every ledger write re-resolves the current
// row by key.
type LineKey struct {
	LocationID  string
	Description string
	Unit        string
}
