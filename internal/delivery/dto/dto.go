package dto

import "github.com/fauzanhr/pharmastock-service/internal/model"

type DeliveryFilters struct {
	Status     model.DeliveryStatus
	LocationID string // matches either endpoint
	Page       int
	PageSize   int
}
