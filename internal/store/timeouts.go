package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RecordTimeout upserts the active timeout for userID in channelID, used
// by the timeout guard to track moderator-applied timeouts it did not
// itself issue (spec.md §4.2).
func (db *DB) RecordTimeout(channelID, userID string, expiresAt time.Time) error {
	_, err := db.Exec(`INSERT INTO timeouts (channel_id, user_id, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (channel_id, user_id) DO UPDATE SET expires_at = excluded.expires_at`,
		channelID, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("store: record timeout for %s/%s: %w", channelID, userID, err)
	}
	return nil
}

// GetTimeout returns the active timeout for userID in channelID, or
// ErrNotFound if none is recorded.
func (db *DB) GetTimeout(channelID, userID string) (*Timeout, error) {
	var t Timeout
	err := db.Get(&t, `SELECT channel_id, user_id, expires_at FROM timeouts WHERE channel_id = $1 AND user_id = $2`,
		channelID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get timeout for %s/%s: %w", channelID, userID, err)
	}
	return &t, nil
}

// DeleteTimeout removes the tracked timeout for userID in channelID, used
// once the guard's 30-second-threshold rule resolves it one way or the
// other (spec.md §4.2).
func (db *DB) DeleteTimeout(channelID, userID string) error {
	_, err := db.Exec(`DELETE FROM timeouts WHERE channel_id = $1 AND user_id = $2`, channelID, userID)
	if err != nil {
		return fmt.Errorf("store: delete timeout for %s/%s: %w", channelID, userID, err)
	}
	return nil
}

// ListExpiredTimeouts returns every tracked timeout whose expiry has
// passed, the query backing the guard's periodic GC sweep.
func (db *DB) ListExpiredTimeouts() ([]Timeout, error) {
	var rows []Timeout
	err := db.Select(&rows, `SELECT channel_id, user_id, expires_at FROM timeouts WHERE expires_at <= now()`)
	if err != nil {
		return nil, fmt.Errorf("store: list expired timeouts: %w", err)
	}
	return rows, nil
}
