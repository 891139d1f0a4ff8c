package delivery

import (
	"context"

	"github.com/fauzanhr/pharmastock-service/internal/auth"
	"github.com/fauzanhr/pharmastock-service/internal/delivery/dto"
	"github.com/fauzanhr/pharmastock-service/internal/model"
)

type UseCase interface {
	Create(ctx context.Context, caller auth.Caller, input *dto.CreateDeliveryInput) (*model.Delivery, error)
	Get(ctx context.Context, id string) (*model.Delivery, error)
	List(ctx context.Context, filters *dto.DeliveryFilters) ([]model.Delivery, int, error)

	AdminConfirm(ctx context.Context, caller auth.Caller, id string) (*model.Delivery, error)
	Accept(ctx context.Context, caller auth.Caller, id string) (*model.Delivery, error)
	DirectComplete(ctx context.Context, caller auth.Caller, id string) (*model.Delivery, error)
	Cancel(ctx context.Context, caller auth.Caller, id string) (*model.Delivery, error)
	Delete(ctx context.Context, caller auth.Caller, id string) error
}
