package ratelimit

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fleetops/dispatch-board/internal/cache"
)

// IPLimiter is the fixed-window counter for unauthenticated and
// webhook endpoints. Counters live in the shared in-process cache, so
// there is no cross-process guarantee; this protects against retry
// storms, not exact quota enforcement.
type IPLimiter struct {
	mu     sync.Mutex
	store  cache.Store
	window time.Duration
	limit  int
	now    func() time.Time
}

type ipCounter struct {
	count     int
	expiresAt time.Time
}

func NewIPLimiter(store cache.Store, window time.Duration, limit int) *IPLimiter {
	if window <= 0 {
		window = defaultWindow
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return &IPLimiter{
		store:  store,
		window: window,
		limit:  limit,
		now:    time.Now,
	}
}

func NewIPLimiterWithClock(store cache.Store, window time.Duration, limit int, now func() time.Time) *IPLimiter {
	l := NewIPLimiter(store, window, limit)
	l.now = now
	return l
}

// Allow buckets the request by client IP under the given key prefix.
func (l *IPLimiter) Allow(r *http.Request, prefix string) Result {
	return l.AllowKey(fmt.Sprintf("rate:%s:%s", prefix, ClientIP(r)))
}

func (l *IPLimiter) AllowKey(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	var c ipCounter
	if v, ok := l.store.Get(key); ok {
		c = v.(ipCounter)
	}

	if c.count == 0 || !c.expiresAt.After(now) {
		c = ipCounter{count: 1, expiresAt: now.Add(l.window)}
	} else {
		c.count++
	}

	// Entry TTL tracks the remaining window so expiry and reset agree.
	l.store.Set(key, c, c.expiresAt.Sub(now))

	if c.count <= l.limit {
		return Result{Allowed: true}
	}

	return Result{
		Allowed:           false,
		RetryAfterSeconds: retryAfter(c.expiresAt, now),
	}
}

func (l *IPLimiter) Limit() int {
	return l.limit
}

// ClientIP takes the first forwarded-for entry, then the real-ip
// header, then "unknown". Clients lacking both headers share the
// "unknown" bucket.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}
	return "unknown"
}
