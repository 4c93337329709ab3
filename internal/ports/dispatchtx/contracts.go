package dispatchtx

import (
	"context"

	"courier-dispatch/internal/domain"
)

// Repository is the transactional surface the assignment coordinator runs
// against. Every Mark* call is a conditional update: it mutates the row
// only when the WHERE guard still holds and returns nil when it did not.
type Repository interface {
	GetDelivery(ctx context.Context, id string) (*domain.Delivery, error)
	ClaimDelivery(ctx context.Context, deliveryID, courierID string, vehicleID *string) (*domain.Delivery, error)
	MarkPickedUp(ctx context.Context, deliveryID, courierID string) (*domain.Delivery, error)
	MarkCompleted(ctx context.Context, deliveryID, courierID string, actualCost *float64) (*domain.Delivery, error)
	MarkCancelled(ctx context.Context, deliveryID string) (*domain.Delivery, error)

	GetCourier(ctx context.Context, id string) (*domain.Courier, error)
	// ClaimCourier marks an available courier busy. Returns false when the
	// courier is absent or already holds an active delivery.
	ClaimCourier(ctx context.Context, id string) (bool, error)
	ReleaseCourier(ctx context.Context, id string, countCompleted bool) error
}

// Runner is a transaction runner.
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
