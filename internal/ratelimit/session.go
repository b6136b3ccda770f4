package ratelimit

import (
	"context"
	"time"
)

const (
	defaultWindow = 60 * time.Second
	defaultLimit  = 60
)

// SessionLimiter guards mutating endpoints per authenticated session.
// The counter lives in the database so every process shares the same
// window.
type SessionLimiter struct {
	store  CounterStore
	window time.Duration
	limit  int
	now    func() time.Time
}

func NewSessionLimiter(store CounterStore, window time.Duration, limit int) *SessionLimiter {
	if window <= 0 {
		window = defaultWindow
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return &SessionLimiter{
		store:  store,
		window: window,
		limit:  limit,
		now:    time.Now,
	}
}

func (l *SessionLimiter) Allow(ctx context.Context, sessionID string) (Result, error) {
	count, expiresAt, err := l.store.Touch(ctx, sessionID, l.window)
	if err != nil {
		return Result{}, err
	}

	if count <= l.limit {
		return Result{Allowed: true}, nil
	}

	return Result{
		Allowed:           false,
		RetryAfterSeconds: retryAfter(expiresAt, l.now()),
	}, nil
}

func (l *SessionLimiter) Limit() int {
	return l.limit
}

func (l *SessionLimiter) Window() time.Duration {
	return l.window
}
