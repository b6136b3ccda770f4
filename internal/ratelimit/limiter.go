// Package ratelimit implements the two fixed-window strategies used by
// the dashboard: a per-session counter persisted in the database, and
// a per-IP counter held in the in-process cache for unauthenticated
// endpoints.
package ratelimit

import (
	"context"
	"time"
)

// Result is what callers translate into an HTTP response: allowed, or
// rejected with a Retry-After hint.
type Result struct {
	Allowed           bool `json:"allowed"`
	RetryAfterSeconds int  `json:"retry_after_seconds,omitempty"`
}

// CounterStore is the atomic insert-or-reset-or-increment a fixed
// window needs. Touch must behave as a single atomic operation per
// key: if no counter exists or its window has lapsed, the count
// resets to 1 with a fresh expiry; otherwise it increments in place
// and keeps the existing expiry. Two concurrent touches on a fresh
// key must never both observe count 1.
type CounterStore interface {
	Touch(ctx context.Context, key string, window time.Duration) (count int, expiresAt time.Time, err error)
}

func retryAfter(expiresAt, now time.Time) int {
	secs := int((expiresAt.Sub(now) + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
