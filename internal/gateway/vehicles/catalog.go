// Package vehicles resolves vehicle profiles for cost estimation. The
// catalog itself is a narrow read-only lookup; the retrying decorator
// absorbs transient storage failures at the infrastructure boundary so
// business logic never retries on its own.
package vehicles

import (
	"context"

	"courier-dispatch/internal/domain"
)

// Catalog looks up a vehicle profile by id. A nil profile with a nil
// error means the vehicle does not exist.
type Catalog interface {
	Get(ctx context.Context, id string) (*domain.VehicleProfile, error)
}
