package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSessionLimiter_AllowsUpToLimit(t *testing.T) {
	store := NewMemoryCounterStore()
	limiter := NewSessionLimiter(store, time.Minute, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := limiter.Allow(ctx, "sess-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	res, err := limiter.Allow(ctx, "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Allowed {
		t.Fatalf("request over the limit should be rejected")
	}
	if res.RetryAfterSeconds < 1 {
		t.Fatalf("retry-after must be at least 1, got %d", res.RetryAfterSeconds)
	}
	if res.RetryAfterSeconds > 60 {
		t.Fatalf("retry-after longer than the window: %d", res.RetryAfterSeconds)
	}
}

func TestSessionLimiter_IndependentKeys(t *testing.T) {
	store := NewMemoryCounterStore()
	limiter := NewSessionLimiter(store, time.Minute, 1)
	ctx := context.Background()

	if res, _ := limiter.Allow(ctx, "a"); !res.Allowed {
		t.Fatalf("first request on a should pass")
	}
	if res, _ := limiter.Allow(ctx, "b"); !res.Allowed {
		t.Fatalf("first request on b should pass")
	}
	if res, _ := limiter.Allow(ctx, "a"); res.Allowed {
		t.Fatalf("second request on a should be rejected")
	}
}

func TestSessionLimiter_WindowReset(t *testing.T) {
	now := time.Now()
	store := NewMemoryCounterStoreWithClock(func() time.Time { return now })
	limiter := NewSessionLimiter(store, time.Minute, 2)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter.Allow(ctx, "sess-1")
	}
	if res, _ := limiter.Allow(ctx, "sess-1"); res.Allowed {
		t.Fatalf("should be rejected before the window lapses")
	}

	now = now.Add(61 * time.Second)

	res, err := limiter.Allow(ctx, "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Allowed {
		t.Fatalf("expected count to reset to 1 after expiry")
	}
}

func TestSessionLimiter_Defaults(t *testing.T) {
	limiter := NewSessionLimiter(NewMemoryCounterStore(), 0, 0)

	if limiter.Limit() != 60 {
		t.Fatalf("default limit should be 60, got %d", limiter.Limit())
	}
	if limiter.Window() != 60*time.Second {
		t.Fatalf("default window should be 60s, got %v", limiter.Window())
	}
}

// N concurrent touches on a fresh key must store exactly N; a
// read-then-write implementation loses updates here.
func TestCounterStore_NoLostUpdates(t *testing.T) {
	store := NewMemoryCounterStore()
	ctx := context.Background()
	const n = 100

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, _, err := store.Touch(ctx, "sess-1", time.Minute); err != nil {
				t.Errorf("touch failed: %v", err)
			}
		}()
	}
	wg.Wait()

	count, _, err := store.Touch(ctx, "sess-1", time.Minute)
	if err != nil {
		t.Fatalf("touch failed: %v", err)
	}
	if count != n+1 {
		t.Fatalf("expected count %d after %d concurrent touches, got %d", n+1, n, count)
	}
}
