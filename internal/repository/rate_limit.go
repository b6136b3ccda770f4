package repository

import (
	"context"
	"time"

	"github.com/fleetops/dispatch-board/internal/storage"
)

type RateLimitRepository struct {
	db *storage.Postgres
}

func NewRateLimitRepository(db *storage.Postgres) *RateLimitRepository {
	return &RateLimitRepository{db: db}
}

// Touch is the one statement in the repo with a real correctness
// requirement: insert-or-reset-or-increment must be a single atomic
// operation, or two concurrent requests on a fresh window both reset
// to 1 and the window undercounts. The ON CONFLICT branch resets the
// counter when the stored expiry has lapsed and increments in place
// otherwise, keeping the existing expiry.
func (r *RateLimitRepository) Touch(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := time.Now().UTC()
	newExpiry := now.Add(window)

	var count int
	var expiresAt time.Time

	row := r.db.DB.WithContext(ctx).Raw(`
		INSERT INTO rate_limit_counters (session_id, count, expires_at)
		VALUES (?, 1, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			count = CASE
				WHEN rate_limit_counters.expires_at <= ? THEN 1
				ELSE rate_limit_counters.count + 1
			END,
			expires_at = CASE
				WHEN rate_limit_counters.expires_at <= ? THEN EXCLUDED.expires_at
				ELSE rate_limit_counters.expires_at
			END
		RETURNING count, expires_at`,
		key, newExpiry, now, now,
	).Row()

	if err := row.Scan(&count, &expiresAt); err != nil {
		return 0, time.Time{}, err
	}

	return count, expiresAt, nil
}
