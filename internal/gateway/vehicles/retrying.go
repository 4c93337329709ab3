package vehicles

import (
	"context"
	"fmt"
	"time"

	"courier-dispatch/internal/apperr"
	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/logx"
	"courier-dispatch/internal/repository"
)

type counter interface {
	Inc()
}

// RetryConfig bounds the retry loop of RetryingCatalog.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryingCatalog retries transient lookup failures with exponential
// backoff. Non-transient errors pass through untouched; exhausted
// transient errors surface as apperr.Unavailable.
type RetryingCatalog struct {
	next    Catalog
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
}

// NewRetryingCatalog wraps next; returns nil when next is nil.
func NewRetryingCatalog(next Catalog, logger logx.Logger, retries counter, cfg RetryConfig) *RetryingCatalog {
	if next == nil {
		return nil
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &RetryingCatalog{next: next, logger: logger, retries: retries, cfg: cfg}
}

// Get looks up a vehicle profile, retrying transient failures.
func (c *RetryingCatalog) Get(ctx context.Context, id string) (*domain.VehicleProfile, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		v, err := c.next.Get(ctx, id)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == c.cfg.MaxAttempts || !repository.IsTransient(err) {
			break
		}
		delay := backoff(c.cfg.BaseDelay, c.cfg.MaxDelay, attempt)
		if c.retries != nil {
			c.retries.Inc()
		}
		c.logger.Warn("vehicle catalog retry",
			logx.String("vehicle_id", id),
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Err(err),
		)
		if !sleepWithContext(ctx, delay) {
			break
		}
	}
	if repository.IsTransient(lastErr) {
		return nil, fmt.Errorf("vehicle catalog: %w: %v", apperr.Unavailable, lastErr)
	}
	return nil, lastErr
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
