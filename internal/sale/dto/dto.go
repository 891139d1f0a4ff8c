package dto

type SaleFilters struct {
	LocationID string
	SoldBy     string
	Page       int
	PageSize   int
}
