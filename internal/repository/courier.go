package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"courier-dispatch/internal/domain"
)

const courierColumns = `c.id, c.user_id, c.vehicle_id, c.is_available, c.rating,
	c.completed_count, c.created_at, c.updated_at`

// CourierRepo represents courier repository.
type CourierRepo struct{ db *pgxpool.Pool }

// NewCourierRepo creates a new CourierRepo.
func NewCourierRepo(db *pgxpool.Pool) *CourierRepo { return &CourierRepo{db: db} }

func scanCourier(r row) (*domain.Courier, error) {
	var c domain.Courier
	err := r.Scan(&c.ID, &c.UserID, &c.VehicleID, &c.Available, &c.Rating,
		&c.CompletedCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Get - returns courier by its ID, or nil when absent.
func (r *CourierRepo) Get(ctx context.Context, id string) (*domain.Courier, error) {
	c, err := scanCourier(r.db.QueryRow(ctx,
		`SELECT `+courierColumns+` FROM couriers c WHERE c.id=$1`, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get courier %s: %w", id, err)
	}
	return c, nil
}

// GetByUserID - returns the courier owned by the given identity, or nil when absent.
func (r *CourierRepo) GetByUserID(ctx context.Context, userID string) (*domain.Courier, error) {
	c, err := scanCourier(r.db.QueryRow(ctx,
		`SELECT `+courierColumns+` FROM couriers c WHERE c.user_id=$1`, userID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get courier by user %s: %w", userID, err)
	}
	return c, nil
}

// ListAvailableVerified returns available couriers whose linked identity is
// verified, ordered by id for a deterministic matching snapshot.
func (r *CourierRepo) ListAvailableVerified(ctx context.Context) ([]domain.Courier, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+courierColumns+`
        FROM couriers c
        JOIN users u ON u.id = c.user_id
        WHERE c.is_available = true AND u.is_verified = true
        ORDER BY c.id
    `)
	if err != nil {
		return nil, fmt.Errorf("list available couriers: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Courier, 0)
	for rows.Next() {
		c, err := scanCourier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
