package store

import "fmt"

// ListSwapEmotes returns the shared swap-emote history for channelID on
// platform, oldest first, matching the original's FIFO eviction order
// (spec.md §4.4.3).
func (db *DB) ListSwapEmotes(channelID string, platform Platform) ([]SwapEmote, error) {
	var rows []SwapEmote
	err := db.Select(&rows, `SELECT id, channel_id, platform, emote_id, name, added_by, added_at, reward_id
		FROM swap_emotes WHERE channel_id = $1 AND platform = $2 ORDER BY added_at ASC`, channelID, platform)
	if err != nil {
		return nil, fmt.Errorf("store: list swap emotes for channel %s/%s: %w", channelID, platform, err)
	}
	return rows, nil
}

// CountSwapEmotes reports how many swap-emote rows channelID currently
// has on platform, used to decide whether adding would exceed the limit.
func (db *DB) CountSwapEmotes(channelID string, platform Platform) (int, error) {
	var n int
	err := db.Get(&n, `SELECT count(*) FROM swap_emotes WHERE channel_id = $1 AND platform = $2`, channelID, platform)
	if err != nil {
		return 0, fmt.Errorf("store: count swap emotes for channel %s/%s: %w", channelID, platform, err)
	}
	return n, nil
}

// AddSwapEmote appends a new swap-emote row.
func (db *DB) AddSwapEmote(e SwapEmote) error {
	_, err := db.NamedExec(`INSERT INTO swap_emotes (channel_id, platform, emote_id, name, added_by, added_at, reward_id)
		VALUES (:channel_id, :platform, :emote_id, :name, :added_by, now(), :reward_id)`, e)
	if err != nil {
		return fmt.Errorf("store: add swap emote %s to channel %s/%s: %w", e.EmoteID, e.ChannelID, e.Platform, err)
	}
	return nil
}

// DeleteOldestSwapEmotes removes the n oldest swap-emote rows for
// channelID on platform, returning the removed rows so the caller can
// issue the matching platform Remove calls.
func (db *DB) DeleteOldestSwapEmotes(channelID string, platform Platform, n int) ([]SwapEmote, error) {
	var victims []SwapEmote
	err := db.Select(&victims, `SELECT id, channel_id, platform, emote_id, name, added_by, added_at, reward_id
		FROM swap_emotes WHERE channel_id = $1 AND platform = $2 ORDER BY added_at ASC LIMIT $3`,
		channelID, platform, n)
	if err != nil {
		return nil, fmt.Errorf("store: select oldest swap emotes for channel %s/%s: %w", channelID, platform, err)
	}
	if len(victims) == 0 {
		return nil, nil
	}
	for _, v := range victims {
		if _, err := db.Exec(`DELETE FROM swap_emotes WHERE id = $1`, v.ID); err != nil {
			return nil, fmt.Errorf("store: delete swap emote %d: %w", v.ID, err)
		}
	}
	return victims, nil
}

// DeleteSwapEmoteByEmoteID removes one swap-emote row identified by its
// upstream emote id, used by "remove last emote" style executors.
func (db *DB) DeleteSwapEmoteByEmoteID(channelID string, platform Platform, emoteID string) error {
	_, err := db.Exec(`DELETE FROM swap_emotes WHERE channel_id = $1 AND platform = $2 AND emote_id = $3`,
		channelID, platform, emoteID)
	if err != nil {
		return fmt.Errorf("store: delete swap emote %s for channel %s/%s: %w", emoteID, channelID, platform, err)
	}
	return nil
}
