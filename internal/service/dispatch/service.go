package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"courier-dispatch/internal/apperr"
	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/logx"
	"courier-dispatch/internal/notify"
)

// Service - delivery creation, listing and cost recalculation.
// Lifecycle transitions live in the assignment coordinator.
type Service struct {
	deliveries       deliveryStore
	vehicles         vehicleCatalog
	estimator        costEstimator
	pub              publisher
	tasks            taskQueue
	logger           logx.Logger
	operationTimeout time.Duration
}

// NewService - creates a new dispatch Service.
func NewService(deliveries deliveryStore, vehicles vehicleCatalog, estimator costEstimator, pub publisher, tasks taskQueue, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		deliveries:       deliveries,
		vehicles:         vehicles,
		estimator:        estimator,
		pub:              pub,
		tasks:            tasks,
		logger:           logger,
		operationTimeout: timeout,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// CreateInput carries the customer-supplied delivery request.
type CreateInput struct {
	PickupLocation string
	DropoffAddress string
	Category       string
	DistanceKm     float64
	VehicleID      *string
}

func (in *CreateInput) validate() error {
	in.PickupLocation = strings.TrimSpace(in.PickupLocation)
	in.DropoffAddress = strings.TrimSpace(in.DropoffAddress)
	in.Category = strings.TrimSpace(in.Category)
	switch {
	case in.PickupLocation == "":
		return fmt.Errorf("%w: pickup_location is required", apperr.Invalid)
	case in.DropoffAddress == "":
		return fmt.Errorf("%w: dropoff_address is required", apperr.Invalid)
	case in.Category == "":
		return fmt.Errorf("%w: category is required", apperr.Invalid)
	case in.DistanceKm < 0:
		return fmt.Errorf("%w: distance_km must be non-negative", apperr.Invalid)
	}
	return nil
}

// Create validates the request, optionally estimates the cost and persists a
// pending delivery. The new-delivery broadcast runs on the background queue,
// so creation never waits on nor fails from fan-out.
func (s *Service) Create(ctx context.Context, in CreateInput, customerID string) (*domain.Delivery, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, fmt.Errorf("%w: customer id is required", apperr.Invalid)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	d := &domain.Delivery{
		PickupLocation: in.PickupLocation,
		DropoffAddress: in.DropoffAddress,
		Category:       in.Category,
		Status:         domain.StatusPending,
		CustomerID:     customerID,
		DistanceKm:     in.DistanceKm,
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// A failed estimate never blocks creation; the delivery is persisted
	// without a cost and can be priced later via RecalculateCost.
	if in.VehicleID != nil && strings.TrimSpace(*in.VehicleID) != "" && in.DistanceKm > 0 {
		vehicleID := strings.TrimSpace(*in.VehicleID)
		v, err := s.vehicles.Get(ctx, vehicleID)
		switch {
		case err != nil:
			s.logger.Warn("cost estimate skipped",
				logx.String("vehicle_id", vehicleID),
				logx.Err(err),
			)
		case v == nil:
			s.logger.Warn("cost estimate skipped: unknown vehicle",
				logx.String("vehicle_id", vehicleID),
			)
		default:
			cost := s.estimator.DeliveryCost(in.DistanceKm, v.FuelConsumption)
			d.EstimatedCost = &cost
			d.VehicleID = &vehicleID
		}
	}

	if _, err := s.deliveries.Create(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info("delivery created",
		logx.String("delivery_id", d.ID),
		logx.String("customer_id", customerID),
		logx.Float64("distance_km", d.DistanceKm),
	)

	created := *d
	s.tasks.Enqueue(func(context.Context) {
		s.pub.Publish(notify.TopicRole(string(domain.RoleCourier)), notify.EventNewDelivery, notify.NewDeliveryPayload{
			DeliveryID:     created.ID,
			PickupLocation: created.PickupLocation,
			DropoffAddress: created.DropoffAddress,
			Category:       created.Category,
			EstimatedCost:  created.EstimatedCost,
			DistanceKm:     created.DistanceKm,
			CreatedAt:      created.CreatedAt,
		})
	})

	return d, nil
}

// Get returns a delivery. Customers only see their own records.
func (s *Service) Get(ctx context.Context, id string, actor domain.AuthIdentity) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, err := s.deliveries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound
	}
	if actor.Role == domain.RoleCustomer && d.CustomerID != actor.ID {
		return nil, apperr.Forbidden
	}
	return d, nil
}

// List returns the actor's deliveries: customers get their own, admins get
// everything. Couriers use the driver listings instead.
func (s *Service) List(ctx context.Context, actor domain.AuthIdentity) ([]domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	switch actor.Role {
	case domain.RoleAdmin:
		return s.deliveries.ListAll(ctx)
	case domain.RoleCustomer:
		return s.deliveries.ListByCustomer(ctx, actor.ID)
	default:
		return nil, apperr.Forbidden
	}
}

// ListAvailable returns pending, unassigned deliveries, oldest first.
func (s *Service) ListAvailable(ctx context.Context) ([]domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.deliveries.ListAvailable(ctx)
}

// ListActive returns the courier's accepted and picked-up deliveries, newest first.
func (s *Service) ListActive(ctx context.Context, courierID string) ([]domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.deliveries.ListActiveByCourier(ctx, courierID)
}

// RecalculateCost recomputes and persists distance and estimated cost for an
// existing delivery, independent of its lifecycle state.
func (s *Service) RecalculateCost(ctx context.Context, deliveryID string, distanceKm float64, vehicleID string) (float64, error) {
	vehicleID = strings.TrimSpace(vehicleID)
	switch {
	case vehicleID == "":
		return 0, fmt.Errorf("%w: vehicle_id is required", apperr.Invalid)
	case distanceKm <= 0:
		return 0, fmt.Errorf("%w: distance_km must be positive", apperr.Invalid)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	v, err := s.vehicles.Get(ctx, vehicleID)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, fmt.Errorf("%w: vehicle %s", apperr.NotFound, vehicleID)
	}

	cost := s.estimator.DeliveryCost(distanceKm, v.FuelConsumption)
	found, err := s.deliveries.UpdateCost(ctx, deliveryID, distanceKm, vehicleID, cost)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, apperr.NotFound
	}
	return cost, nil
}
