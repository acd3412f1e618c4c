package solanarpc

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces outbound RPC calls with a continuously-refilling token
// bucket (golang.org/x/time/rate) that holds N tokens and refills at N per
// W. The long-run average is N calls per W, but it is not a sliding
// window: a full bucket plus the refill during one W can admit up to about
// 2N calls inside a single window of length W.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter builds a limiter allowing callsPerWindow calls per window,
// e.g. NewRateLimiter(50, time.Second) for the spec's default 50/1s.
func NewRateLimiter(callsPerWindow int, window time.Duration) *RateLimiter {
	if callsPerWindow <= 0 {
		callsPerWindow = 50
	}
	if window <= 0 {
		window = time.Second
	}
	interval := window / time.Duration(callsPerWindow)
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Every(interval), callsPerWindow),
	}
}

// Wait blocks until a call slot is available or ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
