package domain

import "time"

// Courier represents a verified driver entity capable of being assigned
// deliveries. Available is false while the courier holds an active
// delivery; at most one active delivery per courier at a time.
type Courier struct {
	ID             string
	UserID         string
	VehicleID      *string
	Available      bool
	Rating         float64
	CompletedCount int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MatchCandidate is a courier plus a computed suitability score for one
// matching pass. Ephemeral - produced and discarded per request.
type MatchCandidate struct {
	Courier Courier
	Score   int
}
