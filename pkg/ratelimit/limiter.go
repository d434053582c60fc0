// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ratelimit throttles outgoing warehouse RPCs to a configured
// requests-per-minute budget so concurrent deploy tasks sharing one
// warehouse client don't overrun it.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket rate limiter sized in requests per
// minute, the unit the warehouse client's RPC budget is naturally
// expressed in.
type Limiter struct {
	rl *rate.Limiter
}

// New creates a Limiter allowing up to perMinute requests per minute,
// with a burst of 1 so requests are spaced rather than allowed to pile
// up at the start of a run.
func New(perMinute int) *Limiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &Limiter{rl: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1)}
}

// Wait blocks until a request may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.rl.Wait(ctx)
}
