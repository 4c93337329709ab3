package handlers

import (
	"time"

	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/service/dispatch"
)

type createDeliveryRequest struct {
	PickupLocation string  `json:"pickup_location"`
	DropoffAddress string  `json:"dropoff_address"`
	Category       string  `json:"category"`
	DistanceKm     float64 `json:"distance_km"`
	VehicleID      *string `json:"vehicle_id,omitempty"`
}

func (req createDeliveryRequest) toInput() dispatch.CreateInput {
	return dispatch.CreateInput{
		PickupLocation: req.PickupLocation,
		DropoffAddress: req.DropoffAddress,
		Category:       req.Category,
		DistanceKm:     req.DistanceKm,
		VehicleID:      req.VehicleID,
	}
}

type deliveryResponse struct {
	ID             string    `json:"id"`
	PickupLocation string    `json:"pickup_location"`
	DropoffAddress string    `json:"dropoff_address"`
	Category       string    `json:"category"`
	Status         string    `json:"status"`
	CustomerID     string    `json:"customer_id"`
	CourierID      *string   `json:"courier_id,omitempty"`
	VehicleID      *string   `json:"vehicle_id,omitempty"`
	DistanceKm     float64   `json:"distance_km"`
	EstimatedCost  *float64  `json:"estimated_cost,omitempty"`
	ActualCost     *float64  `json:"actual_cost,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func deliveryToResponse(d *domain.Delivery) deliveryResponse {
	return deliveryResponse{
		ID:             d.ID,
		PickupLocation: d.PickupLocation,
		DropoffAddress: d.DropoffAddress,
		Category:       d.Category,
		Status:         string(d.Status),
		CustomerID:     d.CustomerID,
		CourierID:      d.CourierID,
		VehicleID:      d.VehicleID,
		DistanceKm:     d.DistanceKm,
		EstimatedCost:  d.EstimatedCost,
		ActualCost:     d.ActualCost,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func deliveriesToResponse(ds []domain.Delivery) []deliveryResponse {
	out := make([]deliveryResponse, 0, len(ds))
	for i := range ds {
		out = append(out, deliveryToResponse(&ds[i]))
	}
	return out
}

type candidateResponse struct {
	CourierID      string  `json:"courier_id"`
	Rating         float64 `json:"rating"`
	CompletedCount int64   `json:"completed_count"`
	Score          int     `json:"score"`
}

func candidatesToResponse(cs []domain.MatchCandidate) []candidateResponse {
	out := make([]candidateResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, candidateResponse{
			CourierID:      c.Courier.ID,
			Rating:         c.Courier.Rating,
			CompletedCount: c.Courier.CompletedCount,
			Score:          c.Score,
		})
	}
	return out
}

type completeDeliveryRequest struct {
	ActualCost *float64 `json:"actual_cost,omitempty"`
}

type calculateCostRequest struct {
	DistanceKm float64 `json:"distance_km"`
	VehicleID  string  `json:"vehicle_id"`
}

type calculateCostResponse struct {
	EstimatedCost float64 `json:"estimated_cost"`
}
