package dto

import "github.com/fauzanhr/pharmastock-service/internal/model"

type TransferFilters struct {
	Status     model.TransferStatus
	LocationID string // matches either endpoint
	Page       int
	PageSize   int
}
