package dto

import "github.com/shopspring/decimal"

type LineFilters struct {
	LocationID  string
	Description string
	// LowStockBelow keeps only lines with quantity at or under the threshold.
	LowStockBelow *decimal.Decimal
	Page          int
	PageSize      int
}
