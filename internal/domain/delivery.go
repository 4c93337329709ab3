package domain

import "time"

// Delivery - a customer's transport request moving through a fixed lifecycle.
// CourierID is set if and only if the status is accepted, picked_up or
// completed; on completed/cancelled the reference is retained for history.
type Delivery struct {
	ID             string
	PickupLocation string
	DropoffAddress string
	Category       string
	Status         DeliveryStatus
	CustomerID     string
	CourierID      *string
	VehicleID      *string
	DistanceKm     float64
	EstimatedCost  *float64
	ActualCost     *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AssignedTo reports whether the delivery is bound to the given courier.
func (d *Delivery) AssignedTo(courierID string) bool {
	return d.CourierID != nil && *d.CourierID == courierID
}
