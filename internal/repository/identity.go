package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"courier-dispatch/internal/domain"
)

// IdentityRepo reads the narrow identity surface the dispatch core consumes.
// Registration, credentials and profiles are owned by another service.
type IdentityRepo struct{ db *pgxpool.Pool }

// NewIdentityRepo creates a new IdentityRepo.
func NewIdentityRepo(db *pgxpool.Pool) *IdentityRepo { return &IdentityRepo{db: db} }

// Get - returns an auth identity by its ID, or nil when absent.
func (r *IdentityRepo) Get(ctx context.Context, id string) (*domain.AuthIdentity, error) {
	var a domain.AuthIdentity
	err := r.db.QueryRow(ctx,
		`SELECT id, role, is_verified FROM users WHERE id=$1`, id,
	).Scan(&a.ID, &a.Role, &a.Verified)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get identity %s: %w", id, err)
	}
	return &a, nil
}
