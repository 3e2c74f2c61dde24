package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket guarding outbound provider calls. Validation
// sweeps hit every provider once per symbol, so buckets are sized per
// provider plan limits rather than shared.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	burst      int
	perToken   time.Duration
	lastRefill time.Time
}

// NewRateLimiter allows burst calls per refillInterval.
func NewRateLimiter(burst int, refillInterval time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     burst,
		burst:      burst,
		perToken:   refillInterval,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait, ok := r.take()
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// take consumes a token if one is available, otherwise reports how long
// until the next refill.
func (r *RateLimiter) take() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if earned := int(now.Sub(r.lastRefill) / r.perToken); earned > 0 {
		r.tokens += earned
		if r.tokens > r.burst {
			r.tokens = r.burst
		}
		r.lastRefill = r.lastRefill.Add(time.Duration(earned) * r.perToken)
	}
	if r.tokens > 0 {
		r.tokens--
		return 0, true
	}
	return r.perToken - now.Sub(r.lastRefill), false
}
