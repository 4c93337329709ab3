package ratelimit

import (
	"sync"
	"time"
)

// Config holds the token bucket settings shared by every key.
type Config struct {
	Rate       float64       // refill rate, tokens per second
	Burst      int           // bucket capacity
	TTL        time.Duration // idle buckets older than this are swept (0 keeps them forever)
	MaxBuckets int           // hard cap on tracked keys (0 means unlimited)
}

// TokenBucketLimiter applies a token bucket per key. State lives in
// memory; idle entries are swept lazily on the Allow path so no
// background goroutine is needed.
type TokenBucketLimiter struct {
	cfg   Config
	clock Clock

	mu        sync.Mutex
	buckets   map[string]*bucket
	nextSweep time.Time
}

// bucket tracks the remaining tokens for one key. The touch timestamp
// drives both refill and idle sweeping.
type bucket struct {
	tokens  float64
	touched time.Time
}

// NewTokenBucketLimiter builds a limiter from cfg, clamping nonsensical
// values to a one-per-second single-token bucket.
func NewTokenBucketLimiter(clock Clock, cfg Config) *TokenBucketLimiter {
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxBuckets < 0 {
		cfg.MaxBuckets = 0
	}
	return &TokenBucketLimiter{
		cfg:     cfg,
		clock:   clock,
		buckets: make(map[string]*bucket),
	}
}

// NewTokenBucketPerWindow translates a "limit per window" quota into
// bucket terms: the window's full quota is the burst.
func NewTokenBucketPerWindow(clock Clock, limit int, window, ttl time.Duration) *TokenBucketLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return NewTokenBucketLimiter(clock, Config{
		Rate:  float64(limit) / window.Seconds(),
		Burst: limit,
		TTL:   ttl,
	})
}

// Allow reports whether key may proceed, consuming one token if so.
// When the key table is at MaxBuckets, unknown keys are refused.
func (l *TokenBucketLimiter) Allow(key string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked(now)

	b, ok := l.buckets[key]
	if !ok {
		if l.cfg.MaxBuckets > 0 && len(l.buckets) >= l.cfg.MaxBuckets {
			return false
		}
		b = &bucket{tokens: float64(l.cfg.Burst)}
		l.buckets[key] = b
	} else if dt := now.Sub(b.touched); dt > 0 {
		b.tokens += dt.Seconds() * l.cfg.Rate
		if capacity := float64(l.cfg.Burst); b.tokens > capacity {
			b.tokens = capacity
		}
	}
	b.touched = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweepLocked drops buckets idle past the TTL. Sweeps run at most once
// per interval so a hot limiter does not rescan the table on every call.
func (l *TokenBucketLimiter) sweepLocked(now time.Time) {
	if l.cfg.TTL <= 0 {
		return
	}
	if !l.nextSweep.IsZero() && now.Before(l.nextSweep) {
		return
	}

	interval := l.cfg.TTL
	if interval < time.Minute {
		interval = time.Minute
	}
	l.nextSweep = now.Add(interval)

	for k, b := range l.buckets {
		if now.Sub(b.touched) > l.cfg.TTL {
			delete(l.buckets, k)
		}
	}
}
