package dto

import (
	"github.com/shopspring/decimal"

	"github.com/fauzanhr/pharmastock-service/internal/apperr"
)

// CreateTransferInput is one client request. Each line becomes its own
// Transfer row; the insert of all lines is a single transaction.
type CreateTransferInput struct {
	FromLocationID string              `json:"from_location_id"`
	ToLocationID   string              `json:"to_location_id"`
	Lines          []TransferLineInput `json:"lines"`
}

type TransferLineInput struct {
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	// UnitCost is only used when the source has no ledger line to copy the
	// cost from (the branch-manager request-to-self case).
	UnitCost decimal.Decimal `json:"unit_cost"`
}

func (in *CreateTransferInput) Validate() error {
	if in.FromLocationID == "" {
		return apperr.Validationf("from_location_id is required")
	}
	if in.ToLocationID == "" {
		return apperr.Validationf("to_location_id is required")
	}
	if in.FromLocationID == in.ToLocationID {
		return apperr.Validationf("source and destination must differ")
	}
	if len(in.Lines) == 0 {
		return apperr.Validationf("at least one line is required")
	}
	for i, line := range in.Lines {
		if line.Description == "" {
			return apperr.Validationf("line %d: description is required", i+1)
		}
		if line.Unit == "" {
			return apperr.Validationf("line %d: unit is required", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperr.Validationf("line %d: quantity must be greater than zero", i+1)
		}
		if line.UnitCost.IsNegative() {
			return apperr.Validationf("line %d: unit_cost must not be negative", i+1)
		}
	}
	return nil
}

type RejectTransferInput struct {
	Reason string `json:"reason"`
}
