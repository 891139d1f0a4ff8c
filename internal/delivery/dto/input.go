package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fauzanhr/pharmastock-service/internal/apperr"
)

type CreateDeliveryInput struct {
	FromLocationID string              `json:"from_location_id"`
	ToLocationID   string              `json:"to_location_id"`
	TransferID     *string             `json:"transfer_id,omitempty"`
	Items          []DeliveryItemInput `json:"items"`
}

type DeliveryItemInput struct {
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
	BatchNumber *string         `json:"batch_number,omitempty"`
}

func (in *CreateDeliveryInput) Validate() error {
	if in.FromLocationID == "" {
		return apperr.Validationf("from_location_id is required")
	}
	if in.ToLocationID == "" {
		return apperr.Validationf("to_location_id is required")
	}
	if in.FromLocationID == in.ToLocationID {
		return apperr.Validationf("source and destination must differ")
	}
	if len(in.Items) == 0 {
		return apperr.Validationf("at least one item is required")
	}
	for i, item := range in.Items {
		if item.Description == "" {
			return apperr.Validationf("item %d: description is required", i+1)
		}
		if item.Unit == "" {
			return apperr.Validationf("item %d: unit is required", i+1)
		}
		if !item.Quantity.IsPositive() {
			return apperr.Validationf("item %d: quantity must be greater than zero", i+1)
		}
	}
	return nil
}
