package matching

import (
	"context"

	"courier-dispatch/internal/domain"
)

type deliveryReader interface {
	Get(ctx context.Context, id string) (*domain.Delivery, error)
}

type courierLister interface {
	ListAvailableVerified(ctx context.Context) ([]domain.Courier, error)
}
