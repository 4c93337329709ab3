package dispatch

import (
	"context"

	"courier-dispatch/internal/domain"
)

type deliveryStore interface {
	Create(ctx context.Context, d *domain.Delivery) (string, error)
	Get(ctx context.Context, id string) (*domain.Delivery, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Delivery, error)
	ListAll(ctx context.Context) ([]domain.Delivery, error)
	ListAvailable(ctx context.Context) ([]domain.Delivery, error)
	ListActiveByCourier(ctx context.Context, courierID string) ([]domain.Delivery, error)
	UpdateCost(ctx context.Context, id string, distanceKm float64, vehicleID string, cost float64) (bool, error)
}

type vehicleCatalog interface {
	Get(ctx context.Context, id string) (*domain.VehicleProfile, error)
}

type costEstimator interface {
	DeliveryCost(distanceKm, fuelConsumption float64) float64
}

type publisher interface {
	Publish(topic, event string, payload any)
}

type taskQueue interface {
	Enqueue(task func(context.Context))
}
