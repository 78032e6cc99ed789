package store

import (
	"fmt"
	"time"
)

// CreateTimedMode records an outstanding timed-mode turn-off task,
// mirroring the original timed-mode model's create_mode persistence.
func (db *DB) CreateTimedMode(channelID string, kind TimedModeKind, endTS time.Time) (int64, error) {
	var id int64
	err := db.Get(&id, `INSERT INTO timed_modes (channel_id, kind, end_ts) VALUES ($1, $2, $3) RETURNING id`,
		channelID, kind, endTS)
	if err != nil {
		return 0, fmt.Errorf("store: create timed mode for channel %s: %w", channelID, err)
	}
	return id, nil
}

// ListAllTimedModes returns every outstanding timed-mode row. No startup
// path calls it, so turn-off tasks are not re-armed after a restart.
func (db *DB) ListAllTimedModes() ([]TimedModeRow, error) {
	var rows []TimedModeRow
	err := db.Select(&rows, `SELECT id, channel_id, kind, end_ts FROM timed_modes`)
	if err != nil {
		return nil, fmt.Errorf("store: list timed modes: %w", err)
	}
	return rows, nil
}

// DeleteTimedMode removes a timed-mode row once its turn-off task has
// fired (or been superseded by a newer redemption of the same kind).
func (db *DB) DeleteTimedMode(id int64) error {
	_, err := db.Exec(`DELETE FROM timed_modes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete timed mode %d: %w", id, err)
	}
	return nil
}
