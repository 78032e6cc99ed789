package store

import "fmt"

// RecordSevenTVIDMigration logs that oldID has been remapped to newID,
// used by cmd/migrate_stv to make the one-time id migration idempotent
// across re-runs.
func (db *DB) RecordSevenTVIDMigration(oldID, newID string) error {
	_, err := db.Exec(`INSERT INTO seventv_id_migrations (old_id, new_id, migrated_at) VALUES ($1, $2, now())
		ON CONFLICT (old_id) DO UPDATE SET new_id = excluded.new_id, migrated_at = now()`, oldID, newID)
	if err != nil {
		return fmt.Errorf("store: record seventv id migration %s -> %s: %w", oldID, newID, err)
	}
	return nil
}

// IsSevenTVIDMigrated reports whether oldID has already been migrated.
func (db *DB) IsSevenTVIDMigrated(oldID string) (bool, error) {
	var exists bool
	err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM seventv_id_migrations WHERE old_id = $1)`, oldID)
	if err != nil {
		return false, fmt.Errorf("store: check seventv id migration %s: %w", oldID, err)
	}
	return exists, nil
}

// ListSlotsByPlatform returns every slot on platform that has an
// emote_id, whatever its id shape; cmd/migrate_stv walks this set for the
// SevenTV platform.
func (db *DB) ListSlotsByPlatform(platform Platform) ([]Slot, error) {
	var rows []Slot
	err := db.Select(&rows, `SELECT id, channel_id, reward_id, platform, emote_id, name, expires_at, added_by, added_at
		FROM slots WHERE platform = $1 AND emote_id IS NOT NULL`, platform)
	if err != nil {
		return nil, fmt.Errorf("store: list slots for platform %s: %w", platform, err)
	}
	return rows, nil
}

// RemapSlotEmoteID rewrites a slot's stored emote id in place after a
// successful upstream migration.
func (db *DB) RemapSlotEmoteID(slotID int64, newEmoteID string) error {
	_, err := db.Exec(`UPDATE slots SET emote_id = $1 WHERE id = $2`, newEmoteID, slotID)
	if err != nil {
		return fmt.Errorf("store: remap slot %d emote id: %w", slotID, err)
	}
	return nil
}

// RemapSwapEmoteID rewrites a swap-emote row's stored emote id in place
// after a successful upstream migration.
func (db *DB) RemapSwapEmoteID(id int64, newEmoteID string) error {
	_, err := db.Exec(`UPDATE swap_emotes SET emote_id = $1 WHERE id = $2`, newEmoteID, id)
	if err != nil {
		return fmt.Errorf("store: remap swap emote %d: %w", id, err)
	}
	return nil
}

// ListSwapEmotesByPlatform returns every swap-emote row on platform
// across all channels, the seed set cmd/migrate_stv walks alongside
// ListSlotsByPlatform.
func (db *DB) ListSwapEmotesByPlatform(platform Platform) ([]SwapEmote, error) {
	var rows []SwapEmote
	err := db.Select(&rows, `SELECT id, channel_id, platform, emote_id, name, added_by, added_at, reward_id
		FROM swap_emotes WHERE platform = $1`, platform)
	if err != nil {
		return nil, fmt.Errorf("store: list swap emotes for platform %s: %w", platform, err)
	}
	return rows, nil
}
