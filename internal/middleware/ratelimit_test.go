package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fleetops/dispatch-board/internal/cache"
	"github.com/fleetops/dispatch-board/internal/ratelimit"
	"github.com/fleetops/dispatch-board/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sessionRouter(limiter *ratelimit.SessionLimiter, sid string) *gin.Engine {
	r := gin.New()
	r.POST("/reports",
		func(c *gin.Context) {
			c.Set("session", &service.Session{SID: sid, UserID: uuid.New()})
		},
		SessionRateLimit(limiter),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) },
	)
	return r
}

func TestSessionRateLimit_Returns429WithRetryAfter(t *testing.T) {
	limiter := ratelimit.NewSessionLimiter(ratelimit.NewMemoryCounterStore(), time.Minute, 2)
	r := sessionRouter(limiter, "sess-1")

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/reports", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/reports", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" || w.Header().Get("Retry-After") == "0" {
		t.Fatalf("expected positive Retry-After header, got %q", w.Header().Get("Retry-After"))
	}
}

func TestSessionRateLimit_WithoutSessionRejects(t *testing.T) {
	limiter := ratelimit.NewSessionLimiter(ratelimit.NewMemoryCounterStore(), time.Minute, 2)
	r := gin.New()
	r.POST("/reports", SessionRateLimit(limiter), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/reports", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", w.Code)
	}
}

func TestIPRateLimit_BucketsByClientIP(t *testing.T) {
	limiter := ratelimit.NewIPLimiter(cache.NewMemory(100), time.Minute, 1)
	r := gin.New()
	r.POST("/sync", IPRateLimit(limiter, "sync"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := httptest.NewRequest("POST", "/sync", nil)
	first.Header.Set("X-Forwarded-For", "203.0.113.9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, first)
	if w.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", w.Code)
	}

	second := httptest.NewRequest("POST", "/sync", nil)
	second.Header.Set("X-Forwarded-For", "203.0.113.9")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, second)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request from the same IP should be limited, got %d", w.Code)
	}

	other := httptest.NewRequest("POST", "/sync", nil)
	other.Header.Set("X-Forwarded-For", "198.51.100.7")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, other)
	if w.Code != http.StatusOK {
		t.Fatalf("different IP should have its own bucket, got %d", w.Code)
	}
}
