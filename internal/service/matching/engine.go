// Package matching ranks eligible couriers for a pending delivery.
package matching

import (
	"context"
	"math"
	"sort"
	"time"

	"courier-dispatch/internal/apperr"
	"courier-dispatch/internal/domain"
)

// Scoring weights. Every candidate currently receives the same location
// score; reserved for geo-distance weighting once coordinates exist.
const (
	baseScore          = 50.0
	ratingWeight       = 4.0
	experiencePerOrder = 0.5
	experienceCap      = 15.0
	locationScore      = 10.0
)

// Engine produces courier rankings for pending deliveries. Rank is a pure
// read: results are a snapshot, not a lease - a ranked courier may be gone
// by the time a claim is attempted.
type Engine struct {
	deliveries       deliveryReader
	couriers         courierLister
	operationTimeout time.Duration
}

// NewEngine creates and configures a matching Engine.
func NewEngine(deliveries deliveryReader, couriers courierLister, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Engine{deliveries: deliveries, couriers: couriers, operationTimeout: timeout}
}

// Rank returns available, verified couriers ordered by descending match
// score for the given pending delivery. Ties break on higher rating, then
// lexicographic courier id, so the ordering is deterministic.
func (e *Engine) Rank(ctx context.Context, deliveryID string) ([]domain.MatchCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, e.operationTimeout)
	defer cancel()

	d, err := e.deliveries.Get(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound
	}

	couriers, err := e.couriers.ListAvailableVerified(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.MatchCandidate, 0, len(couriers))
	for _, c := range couriers {
		candidates = append(candidates, domain.MatchCandidate{
			Courier: c,
			Score:   Score(c),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].Courier.Rating != candidates[j].Courier.Rating {
			return candidates[i].Courier.Rating > candidates[j].Courier.Rating
		}
		return candidates[i].Courier.ID < candidates[j].Courier.ID
	})

	return candidates, nil
}

// Score computes the match score for a courier: base, rating bonus, capped
// experience bonus, placeholder location score, rounded to the nearest integer.
func Score(c domain.Courier) int {
	s := baseScore
	s += c.Rating * ratingWeight
	s += math.Min(float64(c.CompletedCount)*experiencePerOrder, experienceCap)
	s += locationScore
	return int(math.Round(s))
}
