package dto

import (
	"github.com/shopspring/decimal"

	"github.com/fauzanhr/pharmastock-service/internal/apperr"
)

type RecordSaleInput struct {
	LocationID   string          `json:"location_id"`
	Description  string          `json:"description"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	CustomerName *string         `json:"customer_name,omitempty"`
}

func (in *RecordSaleInput) Validate() error {
	if in.LocationID == "" {
		return apperr.Validationf("location_id is required")
	}
	if in.Description == "" {
		return apperr.Validationf("description is required")
	}
	if in.Unit == "" {
		return apperr.Validationf("unit is required")
	}
	if !in.Quantity.IsPositive() {
		return apperr.Validationf("quantity must be greater than zero")
	}
	if in.SellingPrice.IsNegative() {
		return apperr.Validationf("selling_price must not be negative")
	}
	return nil
}
