package middleware

import (
	"net/http"
	"strings"

	"github.com/fleetops/dispatch-board/internal/service"
	"github.com/gin-gonic/gin"
)

const sessionCookieName = "db_session"

// RequireSession validates the session token and stores the resolved
// session in the context. Tokens arrive as a Bearer header from API
// clients or as the session cookie from the dashboard.
func RequireSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			if cookie, err := c.Cookie(sessionCookieName); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		session, err := authService.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired session",
			})
			c.Abort()
			return
		}

		c.Set("session", session)
		c.Set("user_id", session.UserID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// SessionFromContext returns the session set by RequireSession.
func SessionFromContext(c *gin.Context) *service.Session {
	if v, exists := c.Get("session"); exists {
		if session, ok := v.(*service.Session); ok {
			return session
		}
	}
	return nil
}
