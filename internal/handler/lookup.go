package handler

import (
	"net/http"

	"github.com/fleetops/dispatch-board/internal/service"
	"github.com/gin-gonic/gin"
)

type LookupHandler struct {
	service *service.LookupService
}

func NewLookupHandler(service *service.LookupService) *LookupHandler {
	return &LookupHandler{service: service}
}

// Handles GET /api/clusters
func (h *LookupHandler) Clusters(c *gin.Context) {
	ctx := c.Request.Context()
	clusters, err := h.service.Clusters(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"clusters": clusters})
}

// Handles GET /api/hubs?cluster=
func (h *LookupHandler) Hubs(c *gin.Context) {
	ctx := c.Request.Context()
	hubs, err := h.service.Hubs(ctx, c.Query("cluster"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"hubs": hubs})
}

// Handles GET /api/hubs/:code
func (h *LookupHandler) Hub(c *gin.Context) {
	ctx := c.Request.Context()
	hub, err := h.service.Hub(ctx, c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if hub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Hub not found"})
		return
	}

	c.JSON(http.StatusOK, hub)
}
