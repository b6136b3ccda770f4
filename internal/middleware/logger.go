package middleware

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger writes one line per request: request id, method, path,
// status, latency, client IP, and the session email once auth has
// resolved one. Health probes are skipped to keep the log readable.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		if path == "/health" {
			return
		}

		line := fmt.Sprintf("[%s] %s %s - %d - %v - %s",
			c.GetString("request_id"),
			method,
			path,
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
		)
		if session := SessionFromContext(c); session != nil {
			line += " - " + session.Email
		}
		log.Print(line)
	}
}
