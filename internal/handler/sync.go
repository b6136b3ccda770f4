package handler

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/fleetops/dispatch-board/internal/service"
	"github.com/fleetops/dispatch-board/internal/sheets"
	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	service       *service.SyncService
	webhookSecret string
}

func NewSyncHandler(service *service.SyncService, webhookSecret string) *SyncHandler {
	return &SyncHandler{service: service, webhookSecret: webhookSecret}
}

// Handles POST /webhooks/sheets/sync
// Body: {rows:[...], headers?:[...]}, either array-of-arrays with an
// optional separate header row, or array-of-objects. With no posted
// rows the live spreadsheet range is fetched instead.
func (h *SyncHandler) Sync(c *gin.Context) {
	if h.webhookSecret != "" {
		provided := c.GetHeader("X-Sync-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.webhookSecret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid sync secret"})
			return
		}
	}

	var req struct {
		Rows    []interface{} `json:"rows"`
		Headers []interface{} `json:"headers"`
	}
	// Chunked requests carry no Content-Length, so always attempt the
	// bind; io.EOF means an empty body, which falls back to the live
	// fetch below.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	result, err := h.service.Sync(ctx, req.Rows, req.Headers)
	if err != nil {
		// Timeout, bad upstream status and transport failure all map
		// to a descriptive 500; none are retried here.
		if errors.Is(err, sheets.ErrTimeout) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Sheet fetch timed out"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// Handles GET /api/sheet-records?trip=&limit=
func (h *SyncHandler) Records(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	ctx := c.Request.Context()
	records, err := h.service.Records(ctx, c.Query("trip"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}
