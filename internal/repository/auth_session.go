package repository

import (
	"context"
	"time"

	"github.com/fleetops/dispatch-board/internal/models"
	"github.com/fleetops/dispatch-board/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthSessionRepository struct {
	db *storage.Postgres
}

func NewAuthSessionRepository(db *storage.Postgres) *AuthSessionRepository {
	return &AuthSessionRepository{db: db}
}

func (r *AuthSessionRepository) Create(ctx context.Context, session *models.AuthSession) error {
	return r.db.DB.WithContext(ctx).Create(session).Error
}

func (r *AuthSessionRepository) FindByQRToken(ctx context.Context, token string) (*models.AuthSession, error) {
	var session models.AuthSession
	err := r.db.DB.WithContext(ctx).
		Where("qr_token = ?", token).
		First(&session).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &session, err
}

// Confirm moves a pending, unexpired QR session to confirmed. The
// status guard in the WHERE clause makes a second callback a no-op.
func (r *AuthSessionRepository) Confirm(ctx context.Context, token, employeeCode string, userID uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	result := r.db.DB.WithContext(ctx).
		Model(&models.AuthSession{}).
		Where("qr_token = ? AND status = ? AND expires_at > ?", token, models.QRStatusPending, now).
		Updates(map[string]interface{}{
			"status":        models.QRStatusConfirmed,
			"employee_code": employeeCode,
			"user_id":       userID,
			"confirmed_at":  now,
		})

	return result.RowsAffected == 1, result.Error
}

// Consume flips confirmed to consumed exactly once; the polling
// browser that wins this update is the one that gets the web session.
func (r *AuthSessionRepository) Consume(ctx context.Context, token string) (bool, error) {
	result := r.db.DB.WithContext(ctx).
		Model(&models.AuthSession{}).
		Where("qr_token = ? AND status = ?", token, models.QRStatusConfirmed).
		Update("status", models.QRStatusConsumed)

	return result.RowsAffected == 1, result.Error
}

func (r *AuthSessionRepository) MarkExpired(ctx context.Context, token string) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.AuthSession{}).
		Where("qr_token = ? AND status = ?", token, models.QRStatusPending).
		Update("status", models.QRStatusExpired).Error
}
