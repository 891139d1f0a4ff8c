package transfer

import (
	"context"

	"github.com/fauzanhr/pharmastock-service/internal/auth"
	"github.com/fauzanhr/pharmastock-service/internal/model"
	"github.com/fauzanhr/pharmastock-service/internal/transfer/dto"
)

type UseCase interface {
	Create(ctx context.Context, caller auth.Caller, input *dto.CreateTransferInput) ([]model.Transfer, error)
	Get(ctx context.Context, id string) (*model.Transfer, error)
	List(ctx context.Context, filters *dto.TransferFilters) ([]model.Transfer, int, error)

	Approve(ctx context.Context, caller auth.Caller, id string) (*model.Transfer, error)
	Reject(ctx context.Context, caller auth.Caller, id string, reason string) (*model.Transfer, error)
	Ship(ctx context.Context, caller auth.Caller, id string) (*model.Transfer, error)
	Deliver(ctx context.Context, caller auth.Caller, id string) (*model.Transfer, error)
	Cancel(ctx context.Context, caller auth.Caller, id string) (*model.Transfer, error)
}
