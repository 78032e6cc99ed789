package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned by single-row lookups that match no row.
var ErrNotFound = errors.New("store: not found")

// GetReward fetches one reward by id, or ErrNotFound.
func (db *DB) GetReward(id string) (*Reward, error) {
	var r Reward
	err := db.Get(&r, `SELECT id, channel_id, data, live_delay, auto_accept, is_paused, unpause_at
		FROM rewards WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get reward %s: %w", id, err)
	}
	return &r, nil
}

// ListRewardsForChannel returns every reward configured for channelID,
// regardless of live-pause state.
func (db *DB) ListRewardsForChannel(channelID string) ([]Reward, error) {
	var rows []Reward
	err := db.Select(&rows, `SELECT id, channel_id, data, live_delay, auto_accept, is_paused, unpause_at
		FROM rewards WHERE channel_id = $1`, channelID)
	if err != nil {
		return nil, fmt.Errorf("store: list rewards for channel %s: %w", channelID, err)
	}
	return rows, nil
}

// SwapLimitForChannel sums the configured limit of every swap reward on
// channelID that uses platform, used by the swap executor to cap the
// shared emote-history list (spec.md §4.4.3).
func (db *DB) SwapLimitForChannel(channelID string, platform Platform) (int, error) {
	rewards, err := db.ListRewardsForChannel(channelID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, r := range rewards {
		if r.Data.Kind != RewardSwap || r.Data.Swap == nil || r.Data.Swap.Platform != platform {
			continue
		}
		if r.Data.Swap.Limit != nil {
			total += *r.Data.Swap.Limit
		}
	}
	return total, nil
}

// ListLiveRewardsForChannel returns rewards that should currently accept
// redemptions: those with is_paused false. unpause_at is not consulted, so
// a reward whose unpause time has passed stays excluded until SetPause
// clears is_paused.
func (db *DB) ListLiveRewardsForChannel(channelID string) ([]Reward, error) {
	var rows []Reward
	err := db.Select(&rows, `SELECT id, channel_id, data, live_delay, auto_accept, is_paused, unpause_at
		FROM rewards WHERE channel_id = $1 AND is_paused = FALSE`, channelID)
	if err != nil {
		return nil, fmt.Errorf("store: list live rewards for channel %s: %w", channelID, err)
	}
	return rows, nil
}

// ListPendingUnpauseForChannel returns rewards paused with an unpause_at
// timestamp set, used by the live-state scheduler when a channel goes
// offline (spec.md §5).
func (db *DB) ListPendingUnpauseForChannel(channelID string) ([]Reward, error) {
	var rows []Reward
	err := db.Select(&rows, `SELECT id, channel_id, data, live_delay, auto_accept, is_paused, unpause_at
		FROM rewards WHERE channel_id = $1 AND is_paused = TRUE AND unpause_at IS NOT NULL`, channelID)
	if err != nil {
		return nil, fmt.Errorf("store: list pending-unpause rewards for channel %s: %w", channelID, err)
	}
	return rows, nil
}

// ListAllPendingUnpause returns every paused-with-timer reward across all
// channels, used once at process startup, where each is unpaused at once
// and its timer cleared.
func (db *DB) ListAllPendingUnpause() ([]Reward, error) {
	var rows []Reward
	err := db.Select(&rows, `SELECT id, channel_id, data, live_delay, auto_accept, is_paused, unpause_at
		FROM rewards WHERE is_paused = TRUE AND unpause_at IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("store: list all pending-unpause rewards: %w", err)
	}
	return rows, nil
}

// CreateReward inserts r, assuming r.ID has already been minted by the caller.
func (db *DB) CreateReward(r Reward) error {
	_, err := db.NamedExec(`INSERT INTO rewards (id, channel_id, data, live_delay, auto_accept, is_paused, unpause_at)
		VALUES (:id, :channel_id, :data, :live_delay, :auto_accept, :is_paused, :unpause_at)`, r)
	if err != nil {
		return fmt.Errorf("store: create reward %s: %w", r.ID, err)
	}
	return nil
}

// UpdateReward replaces the mutable fields of an existing reward.
func (db *DB) UpdateReward(r Reward) error {
	_, err := db.NamedExec(`UPDATE rewards SET data = :data, live_delay = :live_delay,
		auto_accept = :auto_accept, is_paused = :is_paused, unpause_at = :unpause_at WHERE id = :id`, r)
	if err != nil {
		return fmt.Errorf("store: update reward %s: %w", r.ID, err)
	}
	return nil
}

// SetPause pauses or unpauses a reward, optionally arming an unpause_at
// timer (spec.md §4.5's live-delay suspension).
func (db *DB) SetPause(rewardID string, paused bool, unpauseAt *sql.NullTime) error {
	_, err := db.Exec(`UPDATE rewards SET is_paused = $1, unpause_at = $2 WHERE id = $3`,
		paused, unpauseAt, rewardID)
	if err != nil {
		return fmt.Errorf("store: set pause for reward %s: %w", rewardID, err)
	}
	return nil
}

// ClearUnpauseTimer clears unpause_at without touching is_paused. Nothing
// in this module calls it.
func (db *DB) ClearUnpauseTimer(rewardID string) error {
	_, err := db.Exec(`UPDATE rewards SET unpause_at = NULL WHERE id = $1`, rewardID)
	if err != nil {
		return fmt.Errorf("store: clear unpause timer for reward %s: %w", rewardID, err)
	}
	return nil
}

// DeleteReward removes a reward and, via ON DELETE CASCADE, its slots and
// swap-emote rows.
func (db *DB) DeleteReward(id string) error {
	_, err := db.Exec(`DELETE FROM rewards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete reward %s: %w", id, err)
	}
	return nil
}
