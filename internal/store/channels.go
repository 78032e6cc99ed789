package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Channel is the minimal per-streamer row the live-state scheduler and
// setup tooling consult.
type Channel struct {
	ID         string     `db:"id"`
	Login      string     `db:"login"`
	IsLive     bool       `db:"is_live"`
	WentLiveAt *time.Time `db:"went_live_at"`
}

// UpsertChannel registers or updates a channel's login, used by cmd/setup
// when a streamer onboards.
func (db *DB) UpsertChannel(id, login string) error {
	_, err := db.Exec(`INSERT INTO channels (id, login, is_live) VALUES ($1, $2, FALSE)
		ON CONFLICT (id) DO UPDATE SET login = excluded.login`, id, login)
	if err != nil {
		return fmt.Errorf("store: upsert channel %s: %w", id, err)
	}
	return nil
}

// GetChannel fetches one channel, or ErrNotFound.
func (db *DB) GetChannel(id string) (*Channel, error) {
	var c Channel
	err := db.Get(&c, `SELECT id, login, is_live, went_live_at FROM channels WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get channel %s: %w", id, err)
	}
	return &c, nil
}

// SetLive updates a channel's live state, used by the live-state
// scheduler when a stream goes online or offline (spec.md §4.5).
func (db *DB) SetLive(id string, live bool, wentLiveAt *time.Time) error {
	_, err := db.Exec(`UPDATE channels SET is_live = $1, went_live_at = $2 WHERE id = $3`, live, wentLiveAt, id)
	if err != nil {
		return fmt.Errorf("store: set live state for channel %s: %w", id, err)
	}
	return nil
}

// ListLiveChannels returns every channel currently marked live. Startup
// recovery does not use it; the live-state scheduler works from
// ListAllPendingUnpause instead.
func (db *DB) ListLiveChannels() ([]Channel, error) {
	var rows []Channel
	err := db.Select(&rows, `SELECT id, login, is_live, went_live_at FROM channels WHERE is_live = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("store: list live channels: %w", err)
	}
	return rows, nil
}

// IsEditor reports whether userID is a registered editor for channelID,
// consulted by the chat-command registry's permission check.
func (db *DB) IsEditor(channelID, userID string) (bool, error) {
	var exists bool
	err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM editors WHERE channel_id = $1 AND user_id = $2)`, channelID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: check editor %s for channel %s: %w", userID, channelID, err)
	}
	return exists, nil
}
