package middleware

import (
	"context"
	"log"
	"time"

	"github.com/fleetops/dispatch-board/internal/models"
	"github.com/fleetops/dispatch-board/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Buffered channel for async logging
var logChannel chan models.RequestLog

// Initializes the request logger
func InitRequestLogger(repo *repository.RequestLogRepository, bufferSize int) {
	logChannel = make(chan models.RequestLog, bufferSize)

	// Start background worker to batch insert logs
	go func() {
		batch := make([]models.RequestLog, 0, 100)
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case entry := <-logChannel:
				batch = append(batch, entry)

				if len(batch) >= 100 {
					insertBatch(repo, batch)
					batch = make([]models.RequestLog, 0, 100)
				}
			case <-ticker.C:
				if len(batch) > 0 {
					insertBatch(repo, batch)
					batch = make([]models.RequestLog, 0, 100)
				}
			}
		}
	}()
}

func insertBatch(repo *repository.RequestLogRepository, logs []models.RequestLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := repo.CreateBatch(ctx, logs); err != nil {
		log.Printf("failed to insert request logs: %v", err)
	}
}

// Logs all HTTP requests
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		if logChannel == nil {
			return
		}

		duration := time.Since(start)

		var userID *uuid.UUID
		if v, exists := c.Get("user_id"); exists {
			if id, ok := v.(uuid.UUID); ok {
				userID = &id
			}
		}

		entry := models.RequestLog{
			Timestamp:      start,
			UserID:         userID,
			Method:         c.Request.Method,
			Path:           c.Request.URL.Path,
			StatusCode:     c.Writer.Status(),
			ResponseTimeMs: int(duration.Milliseconds()),
			IPAddress:      c.ClientIP(),
			UserAgent:      c.Request.UserAgent(),
			RequestID:      c.GetString("request_id"),
		}

		select {
		case logChannel <- entry:
			// Successfully queued
		default:
			// Channel full, skip logging to avoid blocking
		}
	}
}
