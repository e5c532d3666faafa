package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter to provide a simpler interface.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a new token bucket limiter.
// r: tokens per second.
// b: burst size.
func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(r), b),
	}
}

// PerMinute returns a limiter admitting n events per minute with a burst of
// one. n <= 0 disables limiting.
func PerMinute(n int) *Limiter {
	if n <= 0 {
		return &Limiter{inner: rate.NewLimiter(rate.Inf, 1)}
	}
	return NewLimiter(float64(n)/60, 1)
}

// Allow reports whether n events may happen now.
func (l *Limiter) Allow(n int) bool {
	return l.inner.AllowN(time.Now(), n)
}

// Wait blocks until n tokens are available.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	return l.inner.WaitN(ctx, n)
}
