package store

import (
	"fmt"

	"github.com/google/uuid"
)

// AddLog appends one event-log row for channelID, the per-channel history
// spec.md describes as the only retained analytics (§2 Non-goals).
func (db *DB) AddLog(channelID, message string) error {
	_, err := db.Exec(`INSERT INTO logs (id, channel_id, message, created_at) VALUES ($1, $2, $3, now())`,
		uuid.NewString(), channelID, message)
	if err != nil {
		return fmt.Errorf("store: add log for channel %s: %w", channelID, err)
	}
	return nil
}

// ListRecentLogs returns the most recent limit log entries for channelID,
// newest first.
func (db *DB) ListRecentLogs(channelID string, limit int) ([]LogEntry, error) {
	var rows []LogEntry
	err := db.Select(&rows, `SELECT id, channel_id, message, created_at FROM logs
		WHERE channel_id = $1 ORDER BY created_at DESC LIMIT $2`, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list recent logs for channel %s: %w", channelID, err)
	}
	return rows, nil
}
