package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// IsEmoteBanned reports whether emoteID has been banned for channelID on
// platform, consulted before a swap or slot executor accepts an emote
// (spec.md §4.4.3/§4.4.4's unlisted-emote allowlist checks).
func (db *DB) IsEmoteBanned(channelID string, platform Platform, emoteID string) (bool, error) {
	var exists bool
	err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM banned_emotes WHERE channel_id = $1 AND platform = $2 AND emote_id = $3)`,
		channelID, platform, emoteID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: check banned emote %s for channel %s/%s: %w", emoteID, channelID, platform, err)
	}
	return exists, nil
}

// BanEmote adds emoteID to channelID's ban list for platform.
func (db *DB) BanEmote(channelID string, platform Platform, emoteID string) error {
	_, err := db.Exec(`INSERT INTO banned_emotes (channel_id, platform, emote_id) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, channelID, platform, emoteID)
	if err != nil {
		return fmt.Errorf("store: ban emote %s for channel %s/%s: %w", emoteID, channelID, platform, err)
	}
	return nil
}

// UnbanEmote removes emoteID from channelID's ban list for platform.
func (db *DB) UnbanEmote(channelID string, platform Platform, emoteID string) error {
	_, err := db.Exec(`DELETE FROM banned_emotes WHERE channel_id = $1 AND platform = $2 AND emote_id = $3`,
		channelID, platform, emoteID)
	if err != nil {
		return fmt.Errorf("store: unban emote %s for channel %s/%s: %w", emoteID, channelID, platform, err)
	}
	return nil
}
