// Package reload implements the manual Reload and Sync operations
// (spec.md §4.8): Reload reconciles swap/slot emote records against
// each platform's live inventory; Sync reconciles internal rewards
// against the streaming platform's own reward list.
package reload

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nerix-tools/redemptiond/internal/cache"
	"github.com/nerix-tools/redemptiond/internal/emote"
	"github.com/nerix-tools/redemptiond/internal/platform"
	"github.com/nerix-tools/redemptiond/internal/store"
)

// inventoryTTL is how long a fetched emote inventory is cached before
// Reload hits the provider again.
const inventoryTTL = 10 * time.Minute

// Reconciler runs Reload and Sync for a channel.
type Reconciler struct {
	db       *store.DB
	platform *platform.Client
	adapters map[store.Platform]emote.Adapter
	cache    cache.Cache
	log      zerolog.Logger
}

// New builds a Reconciler.
func New(db *store.DB, client *platform.Client, adapters map[store.Platform]emote.Adapter, c cache.Cache, log zerolog.Logger) *Reconciler {
	return &Reconciler{db: db, platform: client, adapters: adapters, cache: c, log: log}
}

// Reload fetches the live emote inventory for channelID on every
// configured platform and drops any swap or slot record that no longer
// has a matching emote upstream.
func (r *Reconciler) Reload(ctx context.Context, channelID string) error {
	for platformName, adapter := range r.adapters {
		present, err := r.inventory(ctx, channelID, platformName, adapter)
		if err != nil {
			return fmt.Errorf("reload: fetch inventory for %s/%s: %w", channelID, platformName, err)
		}

		if err := r.reconcileSwaps(channelID, platformName, present); err != nil {
			return err
		}
		if err := r.reconcileSlots(channelID, platformName, present); err != nil {
			return err
		}
	}
	return nil
}

// inventory returns the set of emote ids currently present in
// channelID's set on platformName, serving from cache when fresh.
func (r *Reconciler) inventory(ctx context.Context, channelID string, platformName store.Platform, adapter emote.Adapter) (map[string]bool, error) {
	key := string(platformName) + ":" + channelID

	if r.cache != nil {
		if cached := r.cache.Get(ctx, key); cached != nil {
			return decodeInventory(cached), nil
		}
	}

	emotes, err := adapter.GetEmotes(ctx, channelID)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(emotes))
	for _, e := range emotes {
		present[e.ID] = true
	}

	if r.cache != nil {
		r.cache.Set(ctx, key, encodeInventory(present), inventoryTTL)
	}
	return present, nil
}

func (r *Reconciler) reconcileSwaps(channelID string, platformName store.Platform, present map[string]bool) error {
	history, err := r.db.ListSwapEmotes(channelID, platformName)
	if err != nil {
		return fmt.Errorf("reload: list swap emotes for %s/%s: %w", channelID, platformName, err)
	}
	for _, s := range history {
		if present[s.EmoteID] {
			continue
		}
		if err := r.db.DeleteSwapEmoteByEmoteID(channelID, platformName, s.EmoteID); err != nil {
			return fmt.Errorf("reload: drop stale swap emote %s: %w", s.EmoteID, err)
		}
		r.log.Info().Str("channel_id", channelID).Str("emote_id", s.EmoteID).Msg("reload: dropped swap emote absent upstream")
	}
	return nil
}

func (r *Reconciler) reconcileSlots(channelID string, platformName store.Platform, present map[string]bool) error {
	rewards, err := r.db.ListRewardsForChannel(channelID)
	if err != nil {
		return fmt.Errorf("reload: list rewards for channel %s: %w", channelID, err)
	}
	for _, reward := range rewards {
		if reward.Data.Kind != store.RewardSlot || reward.Data.Slot == nil || reward.Data.Slot.Platform != platformName {
			continue
		}
		slots, err := r.db.ListSlotsForReward(reward.ID)
		if err != nil {
			return fmt.Errorf("reload: list slots for reward %s: %w", reward.ID, err)
		}
		for _, slot := range slots {
			if !slot.Occupied() || present[*slot.EmoteID] {
				continue
			}
			if err := r.db.ClearSlot(slot.ID); err != nil {
				return fmt.Errorf("reload: clear stale slot %d: %w", slot.ID, err)
			}
			r.log.Info().Str("channel_id", channelID).Int64("slot_id", slot.ID).Msg("reload: cleared slot absent upstream")
		}
		if err := r.unpauseIfRoom(reward); err != nil {
			return err
		}
	}
	return nil
}

// unpauseIfRoom lifts a slot reward's pause once Reload has freed at
// least one slot, matching the slot executor's own pause/unpause rule.
func (r *Reconciler) unpauseIfRoom(reward store.Reward) error {
	if !reward.IsPaused {
		return nil
	}
	available, err := r.db.CountAvailableSlots(reward.ID)
	if err != nil {
		return fmt.Errorf("reload: count available slots for reward %s: %w", reward.ID, err)
	}
	if available == 0 {
		return nil
	}
	if err := r.db.SetPause(reward.ID, false, nil); err != nil {
		return fmt.Errorf("reload: unpause reward %s: %w", reward.ID, err)
	}
	return nil
}

// Sync lists broadcasterID's custom rewards on the platform and deletes
// every internal reward whose id is no longer present there, returning
// the count removed (spec.md §4.8).
func (r *Reconciler) Sync(ctx context.Context, channelID, broadcasterID string) (int, error) {
	live, err := r.platform.GetCustomRewards(ctx, broadcasterID)
	if err != nil {
		return 0, fmt.Errorf("sync: fetch custom rewards for %s: %w", broadcasterID, err)
	}
	present := make(map[string]bool, len(live.Data))
	for _, reward := range live.Data {
		present[reward.ID] = true
	}

	internal, err := r.db.ListRewardsForChannel(channelID)
	if err != nil {
		return 0, fmt.Errorf("sync: list internal rewards for channel %s: %w", channelID, err)
	}

	removed := 0
	for _, reward := range internal {
		if present[reward.ID] {
			continue
		}
		if err := r.db.DeleteReward(reward.ID); err != nil {
			return removed, fmt.Errorf("sync: delete stale reward %s: %w", reward.ID, err)
		}
		r.log.Info().Str("channel_id", channelID).Str("reward_id", reward.ID).Msg("sync: removed reward absent upstream")
		removed++
	}
	return removed, nil
}

// encodeInventory/decodeInventory store an inventory as a newline-joined
// list of emote ids, avoiding a JSON dependency for what is just a set.
func encodeInventory(present map[string]bool) []byte {
	out := make([]byte, 0, len(present)*8)
	for id := range present {
		out = append(out, id...)
		out = append(out, '\n')
	}
	return out
}

func decodeInventory(raw []byte) map[string]bool {
	present := make(map[string]bool)
	start := 0
	for i, b := range raw {
		if b == '\n' {
			if i > start {
				present[string(raw[start:i])] = true
			}
			start = i + 1
		}
	}
	return present
}
