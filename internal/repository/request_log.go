package repository

import (
	"context"

	"github.com/fleetops/dispatch-board/internal/models"
	"github.com/fleetops/dispatch-board/internal/storage"
)

type RequestLogRepository struct {
	db *storage.Postgres
}

func NewRequestLogRepository(db *storage.Postgres) *RequestLogRepository {
	return &RequestLogRepository{db: db}
}

func (r *RequestLogRepository) CreateBatch(ctx context.Context, logs []models.RequestLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.DB.WithContext(ctx).Create(&logs).Error
}
