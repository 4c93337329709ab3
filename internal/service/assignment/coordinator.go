// Package assignment performs the race-safe hand-off of a delivery to a
// courier and drives all subsequent lifecycle transitions.
package assignment

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"courier-dispatch/internal/apperr"
	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/logx"
	"courier-dispatch/internal/notify"
	"courier-dispatch/internal/ports/dispatchtx"
)

// Coordinator binds couriers to deliveries. The claim is a single atomic
// conditional update in storage, not an application-level lock: under
// concurrent accept attempts exactly one courier wins and the rest get
// apperr.Conflict.
type Coordinator struct {
	repo             txRunner
	pub              publisher
	conflicts        prometheus.Counter
	logger           logx.Logger
	operationTimeout time.Duration
	now              func() time.Time
}

// NewCoordinator creates and configures a Coordinator.
func NewCoordinator(repo txRunner, pub publisher, conflicts prometheus.Counter, timeout time.Duration, logger logx.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Coordinator{
		repo:             repo,
		pub:              pub,
		conflicts:        conflicts,
		logger:           logger,
		operationTimeout: timeout,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (c *Coordinator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.operationTimeout)
}

// Assign atomically claims a pending, unassigned delivery for the courier.
// On success the courier's vehicle is copied onto the delivery and the
// courier becomes unavailable.
func (c *Coordinator) Assign(ctx context.Context, deliveryID, courierID string) (*domain.Delivery, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var (
		claimed *domain.Delivery
		courier *domain.Courier
	)
	err := c.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		var err error
		courier, err = tx.GetCourier(ctx, courierID)
		if err != nil {
			return err
		}
		if courier == nil {
			return apperr.NotFound
		}

		claimed, err = tx.ClaimDelivery(ctx, deliveryID, courierID, courier.VehicleID)
		if err != nil {
			return err
		}
		if claimed == nil {
			return c.classifyClaimFailure(ctx, tx, deliveryID)
		}

		// The courier side of the claim is conditional too: a courier
		// already holding an active delivery must not win a second one.
		ok, err := tx.ClaimCourier(ctx, courierID)
		if err != nil {
			return err
		}
		if !ok {
			if c.conflicts != nil {
				c.conflicts.Inc()
			}
			c.logger.Warn("delivery claim rejected: courier busy",
				logx.String("delivery_id", deliveryID),
				logx.String("courier_id", courierID),
			)
			return apperr.Conflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("delivery claimed",
		logx.String("event", "delivery_claimed"),
		logx.String("delivery_id", deliveryID),
		logx.String("courier_id", courierID),
	)

	c.pub.Publish(notify.TopicUser(courier.UserID), notify.EventDeliveryAssigned, notify.DeliveryAssignedPayload{
		DeliveryID: claimed.ID,
		Delivery: notify.DeliverySummary{
			PickupLocation: claimed.PickupLocation,
			DropoffAddress: claimed.DropoffAddress,
			Category:       claimed.Category,
			EstimatedCost:  claimed.EstimatedCost,
			DistanceKm:     claimed.DistanceKm,
		},
	})
	c.pub.Publish(notify.TopicUser(claimed.CustomerID), notify.EventDriverAssigned, notify.DriverAssignedPayload{
		DeliveryID: claimed.ID,
		CourierID:  courierID,
	})
	c.publishStatus(claimed, courier.UserID)
	c.publishAvailability(courierID, false)

	return claimed, nil
}

// classifyClaimFailure maps a failed conditional claim to the right error
// kind without ever overwriting the winner.
func (c *Coordinator) classifyClaimFailure(ctx context.Context, tx dispatchtx.Repository, deliveryID string) error {
	d, err := tx.GetDelivery(ctx, deliveryID)
	if err != nil {
		return err
	}
	if d == nil {
		return apperr.NotFound
	}
	if c.conflicts != nil {
		c.conflicts.Inc()
	}
	c.logger.Warn("delivery claim lost",
		logx.String("delivery_id", deliveryID),
		logx.String("status", string(d.Status)),
	)
	return apperr.Conflict
}

// Start moves the courier's accepted delivery to picked_up.
func (c *Coordinator) Start(ctx context.Context, deliveryID, courierID string) (*domain.Delivery, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var (
		updated *domain.Delivery
		courier *domain.Courier
	)
	err := c.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		var err error
		updated, err = tx.MarkPickedUp(ctx, deliveryID, courierID)
		if err != nil {
			return err
		}
		if updated == nil {
			return c.classifyTransitionFailure(ctx, tx, deliveryID, courierID, domain.StatusPickedUp)
		}
		courier, err = tx.GetCourier(ctx, courierID)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.publishStatus(updated, courierUserID(courier))
	return updated, nil
}

// Complete finishes the courier's active delivery, optionally recording
// the actual cost, and releases the courier with a completed-count bump.
func (c *Coordinator) Complete(ctx context.Context, deliveryID, courierID string, actualCost *float64) (*domain.Delivery, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var (
		updated *domain.Delivery
		courier *domain.Courier
	)
	err := c.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		var err error
		updated, err = tx.MarkCompleted(ctx, deliveryID, courierID, actualCost)
		if err != nil {
			return err
		}
		if updated == nil {
			return c.classifyTransitionFailure(ctx, tx, deliveryID, courierID, domain.StatusCompleted)
		}
		if err := tx.ReleaseCourier(ctx, courierID, true); err != nil {
			return err
		}
		courier, err = tx.GetCourier(ctx, courierID)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("delivery completed",
		logx.String("event", "delivery_completed"),
		logx.String("delivery_id", deliveryID),
		logx.String("courier_id", courierID),
	)

	c.publishStatus(updated, courierUserID(courier))
	c.publishAvailability(courierID, true)
	return updated, nil
}

// Cancel moves a non-terminal delivery to cancelled. An assigned courier
// is released without a completed-count bump.
func (c *Coordinator) Cancel(ctx context.Context, deliveryID string) (*domain.Delivery, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var (
		updated *domain.Delivery
		courier *domain.Courier
	)
	err := c.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		var err error
		updated, err = tx.MarkCancelled(ctx, deliveryID)
		if err != nil {
			return err
		}
		if updated == nil {
			d, err := tx.GetDelivery(ctx, deliveryID)
			if err != nil {
				return err
			}
			if d == nil {
				return apperr.NotFound
			}
			if !d.Status.Terminal() {
				return apperr.Conflict
			}
			return apperr.NewInvalidTransition(string(d.Status), string(domain.StatusCancelled))
		}
		if updated.CourierID != nil {
			if err := tx.ReleaseCourier(ctx, *updated.CourierID, false); err != nil {
				return err
			}
			courier, err = tx.GetCourier(ctx, *updated.CourierID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("delivery cancelled",
		logx.String("event", "delivery_cancelled"),
		logx.String("delivery_id", deliveryID),
	)

	c.publishStatus(updated, courierUserID(courier))
	if updated.CourierID != nil {
		c.publishAvailability(*updated.CourierID, true)
	}
	return updated, nil
}

// classifyTransitionFailure distinguishes a missing delivery, a courier
// mismatch, and an illegal lifecycle transition after a guarded update
// matched no row.
func (c *Coordinator) classifyTransitionFailure(ctx context.Context, tx dispatchtx.Repository, deliveryID, courierID string, want domain.DeliveryStatus) error {
	d, err := tx.GetDelivery(ctx, deliveryID)
	if err != nil {
		return err
	}
	if d == nil {
		return apperr.NotFound
	}
	if !d.AssignedTo(courierID) {
		return apperr.Forbidden
	}
	if d.Status.CanTransition(want) {
		// legal per the lifecycle table, so the guard lost to a
		// concurrent writer between the update and this read
		return apperr.Conflict
	}
	return apperr.NewInvalidTransition(string(d.Status), string(want))
}

// publishStatus fans a lifecycle transition out to the delivery topic and
// both parties' personal topics.
func (c *Coordinator) publishStatus(d *domain.Delivery, courierUser string) {
	payload := notify.DeliveryStatusUpdatePayload{
		DeliveryID: d.ID,
		Status:     string(d.Status),
		CourierID:  d.CourierID,
		UpdatedAt:  d.UpdatedAt,
	}
	c.pub.Publish(notify.TopicDelivery(d.ID), notify.EventDeliveryStatusUpdate, payload)
	c.pub.Publish(notify.TopicUser(d.CustomerID), notify.EventDeliveryStatusUpdate, payload)
	if courierUser != "" {
		c.pub.Publish(notify.TopicUser(courierUser), notify.EventDeliveryStatusUpdate, payload)
	}
}

// publishAvailability tells admins about a courier availability change.
func (c *Coordinator) publishAvailability(courierID string, available bool) {
	c.pub.Publish(notify.TopicRole(string(domain.RoleAdmin)), notify.EventDriverStatusUpdate, notify.DriverStatusUpdatePayload{
		CourierID: courierID,
		Available: available,
		TS:        c.now(),
	})
}

func courierUserID(c *domain.Courier) string {
	if c == nil {
		return ""
	}
	return c.UserID
}
