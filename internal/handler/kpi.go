package handler

import (
	"net/http"
	"time"

	"github.com/fleetops/dispatch-board/internal/service"
	"github.com/gin-gonic/gin"
)

type KPIHandler struct {
	service *service.KPIService
}

func NewKPIHandler(service *service.KPIService) *KPIHandler {
	return &KPIHandler{service: service}
}

// Handles GET /api/kpi/summary?from=&to=
// Defaults to the trailing 24 hours.
func (h *KPIHandler) Summary(c *gin.Context) {
	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp"})
			return
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp"})
			return
		}
		to = t
	}

	if !from.Before(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return
	}

	ctx := c.Request.Context()
	summary, err := h.service.Summary(ctx, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}
