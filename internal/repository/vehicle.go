package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"courier-dispatch/internal/domain"
)

// VehicleRepo reads the narrow vehicle profile surface needed for cost
// estimation. Vehicle catalog CRUD lives outside the dispatch core.
type VehicleRepo struct{ db *pgxpool.Pool }

// NewVehicleRepo creates a new VehicleRepo.
func NewVehicleRepo(db *pgxpool.Pool) *VehicleRepo { return &VehicleRepo{db: db} }

// Get - returns a vehicle profile by its ID, or nil when absent.
func (r *VehicleRepo) Get(ctx context.Context, id string) (*domain.VehicleProfile, error) {
	var v domain.VehicleProfile
	err := r.db.QueryRow(ctx,
		`SELECT id, model, fuel_consumption FROM vehicles WHERE id=$1`, id,
	).Scan(&v.ID, &v.Model, &v.FuelConsumption)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get vehicle %s: %w", id, err)
	}
	return &v, nil
}
