package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SessionKindWeb = "web"
	SessionKindQR  = "qr"

	QRStatusPending   = "pending"
	QRStatusConfirmed = "confirmed"
	QRStatusConsumed  = "consumed"
	QRStatusExpired   = "expired"
)

// AuthSession bridges the SeaTalk mobile callback to the web poller.
// A QR session starts pending with no user; the mobile callback
// confirms it with an employee code, and the polling browser consumes
// it exactly once to mint a web session.
type AuthSession struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID       *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Kind         string     `gorm:"size:8;not null;index" json:"kind"`
	QRToken      string     `gorm:"size:64;uniqueIndex" json:"-"`
	Status       string     `gorm:"size:16;default:'pending';index" json:"status"`
	EmployeeCode string     `gorm:"size:64" json:"employee_code,omitempty"`
	ExpiresAt    time.Time  `gorm:"index" json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
}

func (s *AuthSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (AuthSession) TableName() string {
	return "auth_sessions"
}
