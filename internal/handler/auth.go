package handler

import (
	"errors"
	"net/http"

	"github.com/fleetops/dispatch-board/internal/service"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Handles POST /auth/google
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user, token, err := h.service.LoginWithGoogle(ctx, req.Code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Google sign-in failed"})
		return
	}

	setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Handles POST /auth/login - ops admin password fallback
func (h *AuthHandler) PasswordLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user, token, err := h.service.LoginWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Handles POST /auth/qr - start a QR login session
func (h *AuthHandler) StartQR(c *gin.Context) {
	ctx := c.Request.Context()
	session, err := h.service.StartQRSession(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"qr_token":   session.QRToken,
		"expires_at": session.ExpiresAt,
	})
}

// Handles POST /auth/qr/callback - called by the SeaTalk app after scan
func (h *AuthHandler) QRCallback(c *gin.Context) {
	var req struct {
		Token        string `json:"token" binding:"required"`
		EmployeeCode string `json:"employee_code" binding:"required"`
		Signature    string `json:"signature" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	err := h.service.ConfirmQRSession(ctx, req.Token, req.EmployeeCode, req.Signature)
	switch {
	case errors.Is(err, service.ErrInvalidSignature):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
	case errors.Is(err, service.ErrUnknownEmployee):
		c.JSON(http.StatusNotFound, gin.H{"error": "Employee code not registered"})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusGone, gin.H{"error": "Login session expired or already used"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// Handles GET /auth/qr/:token - polled by the browser until confirmed
func (h *AuthHandler) PollQR(c *gin.Context) {
	token := c.Param("token")

	ctx := c.Request.Context()
	result, err := h.service.PollQRSession(ctx, token)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Login session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if result.Token != "" {
		setSessionCookie(c, result.Token)
	}
	c.JSON(http.StatusOK, result)
}

// Handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	v, exists := c.Get("session")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	session := v.(*service.Session)
	c.JSON(http.StatusOK, gin.H{
		"user_id": session.UserID,
		"email":   session.Email,
		"role":    session.Role,
	})
}

func setSessionCookie(c *gin.Context, token string) {
	c.SetCookie("db_session", token, 24*60*60, "/", "", false, true)
}
