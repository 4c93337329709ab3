package domain

// Role represents the role carried in an auth token.
type Role string

// Known roles.
const (
	RoleCustomer Role = "CUSTOMER"
	RoleCourier  Role = "COURIER"
	RoleAdmin    Role = "ADMIN"
)

// Valid checks if the Role is known.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleCourier || r == RoleAdmin
}

// AuthIdentity is the narrow view of an identity record the dispatch core
// consumes. Credential management lives outside this service.
type AuthIdentity struct {
	ID       string
	Role     Role
	Verified bool
}

// VehicleProfile is the narrow view of a vehicle record needed for cost
// estimation. FuelConsumption is liters per 100 km.
type VehicleProfile struct {
	ID              string
	Model           string
	FuelConsumption float64
}
