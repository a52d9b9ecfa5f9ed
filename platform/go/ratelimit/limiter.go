// Package ratelimit provides the per-key attempt throttling used by the
// login and signup endpoints.
package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of a single attempt check.
type Result struct {
	// Allowed is false when the key has exhausted its window.
	Allowed bool
	// Remaining attempts before the limit is hit; zero when blocked.
	Remaining int
	// ResetIn is how long until the oldest counted attempt rolls out of the
	// window. Only meaningful when Allowed is false.
	ResetIn time.Duration
}

// Limiter counts attempts per key inside a rolling window. Implementations:
// Memory (single-process default) and Redis (shared across instances).
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}
