package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/ports/dispatchtx"
)

const deliveryColumns = `id, pickup_location, dropoff_address, category, status,
	customer_id, courier_id, vehicle_id, distance_km, estimated_cost, actual_cost,
	created_at, updated_at`

// DeliveryRepo represents delivery repository.
type DeliveryRepo struct {
	db *pgxpool.Pool
}

// NewDeliveryRepo creates a new DeliveryRepo.
func NewDeliveryRepo(db *pgxpool.Pool) *DeliveryRepo {
	return &DeliveryRepo{db: db}
}

type row interface {
	Scan(dest ...any) error
}

func scanDelivery(r row) (*domain.Delivery, error) {
	var d domain.Delivery
	err := r.Scan(
		&d.ID, &d.PickupLocation, &d.DropoffAddress, &d.Category, &d.Status,
		&d.CustomerID, &d.CourierID, &d.VehicleID, &d.DistanceKm,
		&d.EstimatedCost, &d.ActualCost, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func collectDeliveries(rows pgx.Rows) ([]domain.Delivery, error) {
	defer rows.Close()
	out := make([]domain.Delivery, 0)
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Create persists a new pending delivery and returns its generated id.
func (r *DeliveryRepo) Create(ctx context.Context, d *domain.Delivery) (string, error) {
	id := uuid.New().String()
	err := r.db.QueryRow(ctx, `
        INSERT INTO deliveries
            (id, pickup_location, dropoff_address, category, status,
             customer_id, vehicle_id, distance_km, estimated_cost)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING created_at, updated_at
    `, id, d.PickupLocation, d.DropoffAddress, d.Category, d.Status,
		d.CustomerID, d.VehicleID, d.DistanceKm, d.EstimatedCost,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("create delivery: %w", err)
	}
	d.ID = id
	return id, nil
}

// Get - returns delivery by its ID, or nil when absent.
func (r *DeliveryRepo) Get(ctx context.Context, id string) (*domain.Delivery, error) {
	d, err := scanDelivery(r.db.QueryRow(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE id=$1`, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery %s: %w", id, err)
	}
	return d, nil
}

// ListByCustomer returns the customer's deliveries, newest first.
func (r *DeliveryRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Delivery, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE customer_id=$1 ORDER BY created_at DESC`,
		customerID)
	if err != nil {
		return nil, fmt.Errorf("list deliveries for customer %s: %w", customerID, err)
	}
	return collectDeliveries(rows)
}

// ListAll returns every delivery, newest first.
func (r *DeliveryRepo) ListAll(ctx context.Context) ([]domain.Delivery, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	return collectDeliveries(rows)
}

// ListAvailable returns pending, unassigned deliveries, oldest first.
func (r *DeliveryRepo) ListAvailable(ctx context.Context) ([]domain.Delivery, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+deliveryColumns+`
        FROM deliveries
        WHERE status=$1 AND courier_id IS NULL
        ORDER BY created_at ASC
    `, domain.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list available deliveries: %w", err)
	}
	return collectDeliveries(rows)
}

// ListActiveByCourier returns the courier's accepted/picked_up deliveries, newest first.
func (r *DeliveryRepo) ListActiveByCourier(ctx context.Context, courierID string) ([]domain.Delivery, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+deliveryColumns+`
        FROM deliveries
        WHERE courier_id=$1 AND status = ANY($2)
        ORDER BY created_at DESC
    `, courierID, []string{string(domain.StatusAccepted), string(domain.StatusPickedUp)})
	if err != nil {
		return nil, fmt.Errorf("list active deliveries for courier %s: %w", courierID, err)
	}
	return collectDeliveries(rows)
}

// UpdateCost stores a recalculated distance, vehicle and estimated cost
// independent of lifecycle state. Returns false when the delivery is absent.
func (r *DeliveryRepo) UpdateCost(ctx context.Context, id string, distanceKm float64, vehicleID string, cost float64) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE deliveries
        SET distance_km=$2, vehicle_id=$3, estimated_cost=$4, updated_at=now()
        WHERE id=$1
    `, id, distanceKm, vehicleID, cost)
	if err != nil {
		return false, fmt.Errorf("update delivery cost %s: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

// WithTx opens a transaction and executes fn within it.
func (r *DeliveryRepo) WithTx(ctx context.Context, fn func(tx dispatchtx.Repository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			err = tx.Rollback(ctx)
			if err != nil {
				panic(err)
			}
			panic(p)
		}
	}()

	wrapped := &TxRepo{tx: tx}

	if err := fn(wrapped); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// TxRepo represents transaction repository.
type TxRepo struct {
	tx pgx.Tx
}

var _ dispatchtx.Repository = (*TxRepo)(nil)

// GetDelivery returns the delivery by ID inside the transaction, or nil when absent.
func (r *TxRepo) GetDelivery(ctx context.Context, id string) (*domain.Delivery, error) {
	d, err := scanDelivery(r.tx.QueryRow(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE id=$1`, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery %s: %w", id, err)
	}
	return d, nil
}

// ClaimDelivery performs the atomic claim: it binds the courier and moves the
// delivery to accepted only if the row is still pending and unassigned. A nil
// result means the guard did not hold (already claimed, missing, or not pending).
func (r *TxRepo) ClaimDelivery(ctx context.Context, deliveryID, courierID string, vehicleID *string) (*domain.Delivery, error) {
	d, err := scanDelivery(r.tx.QueryRow(ctx, `
        UPDATE deliveries
        SET courier_id=$2, vehicle_id=COALESCE($3, vehicle_id), status=$4, updated_at=now()
        WHERE id=$1 AND status=$5 AND courier_id IS NULL
        RETURNING `+deliveryColumns,
		deliveryID, courierID, vehicleID, domain.StatusAccepted, domain.StatusPending))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim delivery %s: %w", deliveryID, err)
	}
	return d, nil
}

// MarkPickedUp moves an accepted delivery held by courierID to picked_up.
func (r *TxRepo) MarkPickedUp(ctx context.Context, deliveryID, courierID string) (*domain.Delivery, error) {
	d, err := scanDelivery(r.tx.QueryRow(ctx, `
        UPDATE deliveries
        SET status=$3, updated_at=now()
        WHERE id=$1 AND courier_id=$2 AND status=$4
        RETURNING `+deliveryColumns,
		deliveryID, courierID, domain.StatusPickedUp, domain.StatusAccepted))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("mark delivery %s picked up: %w", deliveryID, err)
	}
	return d, nil
}

// MarkCompleted moves an active delivery held by courierID to completed,
// optionally recording the actual cost.
func (r *TxRepo) MarkCompleted(ctx context.Context, deliveryID, courierID string, actualCost *float64) (*domain.Delivery, error) {
	d, err := scanDelivery(r.tx.QueryRow(ctx, `
        UPDATE deliveries
        SET status=$3, actual_cost=COALESCE($4, actual_cost), updated_at=now()
        WHERE id=$1 AND courier_id=$2 AND status = ANY($5)
        RETURNING `+deliveryColumns,
		deliveryID, courierID, domain.StatusCompleted, actualCost,
		[]string{string(domain.StatusAccepted), string(domain.StatusPickedUp)}))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("mark delivery %s completed: %w", deliveryID, err)
	}
	return d, nil
}

// MarkCancelled moves any non-terminal delivery to cancelled.
func (r *TxRepo) MarkCancelled(ctx context.Context, deliveryID string) (*domain.Delivery, error) {
	d, err := scanDelivery(r.tx.QueryRow(ctx, `
        UPDATE deliveries
        SET status=$2, updated_at=now()
        WHERE id=$1 AND status = ANY($3)
        RETURNING `+deliveryColumns,
		deliveryID, domain.StatusCancelled,
		[]string{string(domain.StatusPending), string(domain.StatusAccepted), string(domain.StatusPickedUp)}))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("mark delivery %s cancelled: %w", deliveryID, err)
	}
	return d, nil
}

// GetCourier returns the courier by ID inside the transaction, or nil when absent.
func (r *TxRepo) GetCourier(ctx context.Context, id string) (*domain.Courier, error) {
	var c domain.Courier
	err := r.tx.QueryRow(ctx, `
        SELECT id, user_id, vehicle_id, is_available, rating, completed_count, created_at, updated_at
        FROM couriers WHERE id=$1
    `, id).Scan(&c.ID, &c.UserID, &c.VehicleID, &c.Available, &c.Rating,
		&c.CompletedCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get courier %s: %w", id, err)
	}
	return &c, nil
}

// ClaimCourier marks an available courier busy. The update is conditional
// on is_available so a courier already holding an active delivery cannot
// be bound to a second one; zero matched rows reports false.
func (r *TxRepo) ClaimCourier(ctx context.Context, id string) (bool, error) {
	ct, err := r.tx.Exec(ctx, `
        UPDATE couriers SET is_available=false, updated_at=now()
        WHERE id=$1 AND is_available=true
    `, id)
	if err != nil {
		return false, fmt.Errorf("claim courier %s: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

// ReleaseCourier makes the courier available again; when countCompleted is
// true the cumulative completed-delivery counter is incremented as well.
func (r *TxRepo) ReleaseCourier(ctx context.Context, id string, countCompleted bool) error {
	inc := 0
	if countCompleted {
		inc = 1
	}
	ct, err := r.tx.Exec(ctx, `
        UPDATE couriers
        SET is_available=true, completed_count=completed_count+$2, updated_at=now()
        WHERE id=$1
    `, id, inc)
	if err != nil {
		return fmt.Errorf("release courier %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("courier %s not found", id)
	}
	return nil
}
