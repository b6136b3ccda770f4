package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/fleetops/dispatch-board/internal/service"
	"github.com/gin-gonic/gin"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestLogger_WritesRequestLine(t *testing.T) {
	buf := captureLog(t)

	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/api/reports", func(c *gin.Context) {
		c.Set("session", &service.Session{Email: "ops@example.com"})
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/reports", nil))

	line := buf.String()
	if !strings.Contains(line, "GET /api/reports") {
		t.Fatalf("expected method and path in log line, got %q", line)
	}
	if !strings.Contains(line, "200") {
		t.Fatalf("expected status in log line, got %q", line)
	}
	if !strings.Contains(line, "ops@example.com") {
		t.Fatalf("expected session email in log line, got %q", line)
	}
}

func TestLogger_SkipsHealthProbes(t *testing.T) {
	buf := captureLog(t)

	r := gin.New()
	r.Use(Logger())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if buf.Len() != 0 {
		t.Fatalf("health probes must not be logged, got %q", buf.String())
	}
}
