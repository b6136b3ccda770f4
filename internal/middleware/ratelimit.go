package middleware

import (
	"fmt"
	"net/http"

	"github.com/fleetops/dispatch-board/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// SessionRateLimit applies the database-backed fixed window to the
// authenticated session. Must run after RequireSession.
func SessionRateLimit(limiter *ratelimit.SessionLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := SessionFromContext(c)
		if session == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		result, err := limiter.Allow(c.Request.Context(), session.SID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Rate limit check failed",
			})
			c.Abort()
			return
		}

		if !result.Allowed {
			reject(c, result)
			return
		}

		c.Next()
	}
}

// IPRateLimit applies the in-process fixed window per client IP; for
// unauthenticated and webhook endpoints.
func IPRateLimit(limiter *ratelimit.IPLimiter, prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := limiter.Allow(c.Request, prefix)
		if !result.Allowed {
			reject(c, result)
			return
		}
		c.Next()
	}
}

func reject(c *gin.Context, result ratelimit.Result) {
	c.Header("Retry-After", fmt.Sprintf("%d", result.RetryAfterSeconds))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":       "Rate limit exceeded",
		"retry_after": result.RetryAfterSeconds,
	})
	c.Abort()
}
