package store

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ListSlotsForReward returns every slot row backing rewardID, in
// insertion order, matching the original's resize-by-appending-or-
// trimming-the-tail behaviour (spec.md §4.4.4).
func (db *DB) ListSlotsForReward(rewardID string) ([]Slot, error) {
	var rows []Slot
	err := db.Select(&rows, `SELECT id, channel_id, reward_id, platform, emote_id, name, expires_at, added_by, added_at
		FROM slots WHERE reward_id = $1 ORDER BY id ASC`, rewardID)
	if err != nil {
		return nil, fmt.Errorf("store: list slots for reward %s: %w", rewardID, err)
	}
	return rows, nil
}

// AvailableSlotsForReward returns the empty slots (no emote occupying
// them) backing rewardID, in insertion order.
func (db *DB) AvailableSlotsForReward(rewardID string) ([]Slot, error) {
	var rows []Slot
	err := db.Select(&rows, `SELECT id, channel_id, reward_id, platform, emote_id, name, expires_at, added_by, added_at
		FROM slots WHERE reward_id = $1 AND emote_id IS NULL ORDER BY id ASC`, rewardID)
	if err != nil {
		return nil, fmt.Errorf("store: list available slots for reward %s: %w", rewardID, err)
	}
	return rows, nil
}

// CountAvailableSlots reports how many empty slots rewardID currently has,
// used by the executor to decide whether a redemption can proceed without
// loading every row.
func (db *DB) CountAvailableSlots(rewardID string) (int, error) {
	var n int
	err := db.Get(&n, `SELECT count(*) FROM slots WHERE reward_id = $1 AND emote_id IS NULL`, rewardID)
	if err != nil {
		return 0, fmt.Errorf("store: count available slots for reward %s: %w", rewardID, err)
	}
	return n, nil
}

// AddEmptySlot appends a new empty slot row, used when a reward's
// configured slot count is raised.
func (db *DB) AddEmptySlot(channelID, rewardID string, platform Platform) error {
	_, err := db.Exec(`INSERT INTO slots (channel_id, reward_id, platform, emote_id, name, expires_at, added_by, added_at)
		VALUES ($1, $2, $3, NULL, NULL, NULL, NULL, NULL)`, channelID, rewardID, platform)
	if err != nil {
		return fmt.Errorf("store: add empty slot for reward %s: %w", rewardID, err)
	}
	return nil
}

// DeleteEmptySlotsTail removes up to n empty slots backing rewardID,
// oldest-appended first, used when a reward's configured slot count is
// lowered and there is enough free capacity to shrink without evicting.
func (db *DB) DeleteEmptySlotsTail(rewardID string, n int) (int, error) {
	res, err := db.Exec(`DELETE FROM slots WHERE id IN (
		SELECT id FROM slots WHERE reward_id = $1 AND emote_id IS NULL ORDER BY id ASC LIMIT $2)`,
		rewardID, n)
	if err != nil {
		return 0, fmt.Errorf("store: delete empty slot tail for reward %s: %w", rewardID, err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

// DeleteOccupiedSlotsTail evicts up to n occupied slots backing rewardID,
// oldest-added first, returning the evicted rows so the caller can issue
// the matching platform Remove calls.
func (db *DB) DeleteOccupiedSlotsTail(rewardID string, n int) ([]Slot, error) {
	var victims []Slot
	err := db.Select(&victims, `SELECT id, channel_id, reward_id, platform, emote_id, name, expires_at, added_by, added_at
		FROM slots WHERE reward_id = $1 AND emote_id IS NOT NULL ORDER BY added_at ASC LIMIT $2`,
		rewardID, n)
	if err != nil {
		return nil, fmt.Errorf("store: select occupied slot tail for reward %s: %w", rewardID, err)
	}
	if len(victims) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(victims))
	for i, v := range victims {
		ids[i] = v.ID
	}
	query, args, err := sqlx.In(`DELETE FROM slots WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("store: build delete query for slot tail: %w", err)
	}
	if _, err := db.Exec(db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("store: delete occupied slot tail for reward %s: %w", rewardID, err)
	}
	return victims, nil
}

// FindSlotByEmoteID locates the occupied slot holding emoteID for
// channelID on platform, used by the remove-emote executor to tell a
// slot-backed emote apart from a swap-backed one (spec.md §4.4.5).
func (db *DB) FindSlotByEmoteID(channelID string, platform Platform, emoteID string) (*Slot, error) {
	var rows []Slot
	err := db.Select(&rows, `SELECT id, channel_id, reward_id, platform, emote_id, name, expires_at, added_by, added_at
		FROM slots WHERE channel_id = $1 AND platform = $2 AND emote_id = $3 LIMIT 1`, channelID, platform, emoteID)
	if err != nil {
		return nil, fmt.Errorf("store: find slot by emote %s for channel %s/%s: %w", emoteID, channelID, platform, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// FillSlot occupies an empty slot with an emote, recording who redeemed it.
// expiresAt may be nil for a slot reward with no configured expiration.
func (db *DB) FillSlot(slotID int64, emoteID, name, addedBy string, expiresAt *time.Time) error {
	_, err := db.Exec(`UPDATE slots SET emote_id = $1, name = $2, added_by = $3, added_at = now(), expires_at = $4
		WHERE id = $5`, emoteID, name, addedBy, expiresAt, slotID)
	if err != nil {
		return fmt.Errorf("store: fill slot %d: %w", slotID, err)
	}
	return nil
}

// ClearSlot empties a slot in place, used by the sweeper when an emote's
// expiration has passed (spec.md §4.4 Slot Sweeper).
func (db *DB) ClearSlot(slotID int64) error {
	_, err := db.Exec(`UPDATE slots SET emote_id = NULL, name = NULL, added_by = NULL, added_at = NULL, expires_at = NULL
		WHERE id = $1`, slotID)
	if err != nil {
		return fmt.Errorf("store: clear slot %d: %w", slotID, err)
	}
	return nil
}

// ListExpiringSlots returns every occupied slot across all channels whose
// expiry falls within the next minute, the query backing the periodic
// sweep (spec.md §4.4): the sweeper runs every two minutes, so catching
// anything due in the next one avoids a slot sitting expired for up to
// an extra cycle.
func (db *DB) ListExpiringSlots() ([]Slot, error) {
	var rows []Slot
	err := db.Select(&rows, `SELECT id, channel_id, reward_id, platform, emote_id, name, expires_at, added_by, added_at
		FROM slots WHERE emote_id IS NOT NULL AND expires_at IS NOT NULL AND expires_at <= now() + interval '1 minute'`)
	if err != nil {
		return nil, fmt.Errorf("store: list expiring slots: %w", err)
	}
	return rows, nil
}
