package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fleetops/dispatch-board/internal/dispatch"
	"github.com/fleetops/dispatch-board/internal/middleware"
	"github.com/fleetops/dispatch-board/internal/repository"
	"github.com/fleetops/dispatch-board/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Handles POST /api/reports
func (h *ReportHandler) Submit(c *gin.Context) {
	var req struct {
		Rows []dispatch.RawRow `json:"rows" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := middleware.SessionFromContext(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	ctx := c.Request.Context()
	result, err := h.service.Submit(ctx, req.Rows, session.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTooManyRows), errors.Is(err, service.ErrEmptyBatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	if !result.OK {
		// All-or-nothing: one bad row fails the whole batch and no
		// rows are inserted.
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Handles GET /api/reports
func (h *ReportHandler) List(c *gin.Context) {
	filter := repository.ReportFilter{
		ClusterName: c.Query("cluster"),
		Region:      c.Query("region"),
		Status:      c.Query("status"),
	}

	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp"})
			return
		}
		filter.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp"})
			return
		}
		filter.To = t
	}
	if limit := c.Query("limit"); limit != "" {
		filter.Limit, _ = strconv.Atoi(limit)
	}
	if offset := c.Query("offset"); offset != "" {
		filter.Offset, _ = strconv.Atoi(offset)
	}

	ctx := c.Request.Context()
	reports, total, err := h.service.List(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"total":   total,
	})
}

// Handles PATCH /api/reports/:id/status
func (h *ReportHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	report, err := h.service.UpdateStatus(ctx, id, req.Status)
	switch {
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, report)
	}
}
