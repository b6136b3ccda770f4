package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fleetops/dispatch-board/internal/cache"
)

func TestIPLimiter_FixedWindow(t *testing.T) {
	store := cache.NewMemory(100)
	limiter := NewIPLimiter(store, time.Minute, 3)

	r := httptest.NewRequest("POST", "/webhooks/sheets/sync", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9")

	for i := 0; i < 3; i++ {
		if res := limiter.Allow(r, "sync"); !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	res := limiter.Allow(r, "sync")
	if res.Allowed {
		t.Fatalf("fourth request should be rejected")
	}
	if res.RetryAfterSeconds < 1 {
		t.Fatalf("retry-after must be at least 1, got %d", res.RetryAfterSeconds)
	}
}

func TestIPLimiter_WindowReset(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	store := cache.NewMemoryWithClock(100, clock)
	limiter := NewIPLimiterWithClock(store, time.Minute, 1, clock)

	r := httptest.NewRequest("GET", "/auth/qr/abc", nil)
	r.Header.Set("X-Real-IP", "198.51.100.7")

	if res := limiter.Allow(r, "qr"); !res.Allowed {
		t.Fatalf("first request should pass")
	}
	if res := limiter.Allow(r, "qr"); res.Allowed {
		t.Fatalf("second request in the window should be rejected")
	}

	now = now.Add(2 * time.Minute)

	if res := limiter.Allow(r, "qr"); !res.Allowed {
		t.Fatalf("expected reset after the window lapsed")
	}
}

func TestIPLimiter_PrefixesAreIndependent(t *testing.T) {
	store := cache.NewMemory(100)
	limiter := NewIPLimiter(store, time.Minute, 1)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9")

	if res := limiter.Allow(r, "sync"); !res.Allowed {
		t.Fatalf("sync bucket should pass")
	}
	if res := limiter.Allow(r, "qr"); !res.Allowed {
		t.Fatalf("qr bucket is separate and should pass")
	}
	if res := limiter.Allow(r, "sync"); res.Allowed {
		t.Fatalf("sync bucket should now reject")
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name      string
		forwarded string
		realIP    string
		want      string
	}{
		{"first forwarded entry", "203.0.113.9, 10.0.0.1", "", "203.0.113.9"},
		{"single forwarded entry", "203.0.113.9", "", "203.0.113.9"},
		{"forwarded wins over real-ip", "203.0.113.9", "198.51.100.7", "203.0.113.9"},
		{"real-ip fallback", "", "198.51.100.7", "198.51.100.7"},
		{"no headers shares one bucket", "", "", "unknown"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tc.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if tc.realIP != "" {
				r.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := ClientIP(r); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
