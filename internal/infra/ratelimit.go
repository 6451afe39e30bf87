package infra

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces outbound requests. A nil *RateLimiter never blocks.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows perMinute requests per minute with a burst of one.
// It returns nil when perMinute is not positive, meaning unlimited.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)}
}

// Wait blocks until a request may proceed or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return nil
	}
	return rl.limiter.Wait(ctx)
}

// Limit returns the steady-state rate in events per second, or rate.Inf for a nil limiter.
func (rl *RateLimiter) Limit() rate.Limit {
	if rl == nil {
		return rate.Inf
	}
	return rl.limiter.Limit()
}
