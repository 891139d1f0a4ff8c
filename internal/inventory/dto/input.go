package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fauzanhr/pharmastock-service/internal/apperr"
)

type UpsertLineInput struct {
	LocationID            string          `json:"location_id"`
	Description           string          `json:"description"`
	Unit                  string          `json:"unit"`
	Quantity              decimal.Decimal `json:"quantity"`
	UnitCost              decimal.Decimal `json:"unit_cost"`
	SuggestedSellingPrice decimal.Decimal `json:"suggested_selling_price"`
	ExpiryDate            *time.Time      `json:"expiry_date,omitempty"`
	BatchNumber           *string         `json:"batch_number,omitempty"`
}

func (in *UpsertLineInput) Validate() error {
	if in.LocationID == "" {
		return apperr.Validationf("location_id is required")
	}
	if in.Description == "" {
		return apperr.Validationf("description is required")
	}
	if in.Unit == "" {
		return apperr.Validationf("unit is required")
	}
	if in.Quantity.IsNegative() || in.Quantity.IsZero() {
		return apperr.Validationf("quantity must be greater than zero")
	}
	if in.UnitCost.IsNegative() {
		return apperr.Validationf("unit_cost must not be negative")
	}
	if in.SuggestedSellingPrice.IsNegative() {
		return apperr.Validationf("suggested_selling_price must not be negative")
	}
	return nil
}
