package server

import (
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter is a per-connection token bucket refilling burst tokens every
// interval. A nil limiter allows everything.
type rateLimiter struct {
	lim      *rate.Limiter
	burst    int
	interval time.Duration
}

func newRateLimiter(burst int, interval time.Duration) *rateLimiter {
	if burst <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &rateLimiter{
		lim:      rate.NewLimiter(rate.Every(interval/time.Duration(burst)), burst),
		burst:    burst,
		interval: interval,
	}
}

func (rl *rateLimiter) allow() bool {
	if rl == nil {
		return true
	}
	return rl.lim.Allow()
}
