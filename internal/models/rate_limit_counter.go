package models

import "time"

// RateLimitCounter is a fixed-window counter row, one per session key.
// Stale rows are reset in place on the next touch, never purged.
type RateLimitCounter struct {
	SessionID string    `gorm:"primaryKey;size:128" json:"session_id"`
	Count     int       `gorm:"not null" json:"count"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

func (RateLimitCounter) TableName() string {
	return "rate_limit_counters"
}
