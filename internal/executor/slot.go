package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/nerix-tools/redemptiond/internal/store"
)

// ResizeSlots implements spec.md §4.4.4's resize rule: grow or shrink the
// slot row set backing a reward to match a newly configured slot count.
// Shrinking prefers removing empty slots; where occupied slots must be
// removed to reach the target, their emotes are removed from the
// provider first. Growing only creates slots the provider has headroom
// for, so a resize never claims capacity another reward or the
// broadcaster is already using.
func ResizeSlots(ctx context.Context, channelID, rewardID string, cfg store.SlotConfig, deps Deps) error {
	adapter, ok := deps.Adapters[cfg.Platform]
	if !ok {
		return fmt.Errorf("executor: platform %s not configured", cfg.Platform)
	}

	current, err := deps.DB.ListSlotsForReward(rewardID)
	if err != nil {
		return err
	}

	target := cfg.Slots
	delta := target - len(current)

	switch {
	case delta < 0:
		need := -delta
		removedEmpty, err := deps.DB.DeleteEmptySlotsTail(rewardID, need)
		if err != nil {
			return err
		}
		need -= removedEmpty
		if need > 0 {
			victims, err := deps.DB.DeleteOccupiedSlotsTail(rewardID, need)
			if err != nil {
				return err
			}
			for _, v := range victims {
				if v.EmoteID == nil {
					continue
				}
				if err := adapter.Remove(ctx, channelID, *v.EmoteID); err != nil {
					deps.Log.Warn().Err(err).Str("slot_id", fmt.Sprint(v.ID)).Msg("executor: removing evicted slot emote during resize failed")
				}
			}
		}

	case delta > 0:
		capacity, currentCount, err := adapter.GetCapacity(ctx, channelID)
		if err != nil {
			return err
		}
		headroom := capacity - currentCount
		if headroom < delta {
			delta = headroom
		}
		for i := 0; i < delta; i++ {
			if err := deps.DB.AddEmptySlot(channelID, rewardID, cfg.Platform); err != nil {
				return err
			}
		}
	}

	available, err := deps.DB.CountAvailableSlots(rewardID)
	if err != nil {
		return err
	}
	return deps.DB.SetPause(rewardID, available == 0, nil)
}

// ExecuteSlotRedeem implements spec.md §4.4.4's redeem rule: claim an
// empty slot, add the requested emote to the provider, and record it.
func ExecuteSlotRedeem(ctx context.Context, r Redemption, cfg store.SlotConfig, deps Deps) (Outcome, error) {
	adapter, ok := deps.Adapters[cfg.Platform]
	if !ok {
		return fail("that emote platform is not configured"), nil
	}

	available, err := deps.DB.AvailableSlotsForReward(r.RewardID)
	if err != nil {
		return Outcome{}, err
	}
	if len(available) == 0 {
		return fail("no emote slots are available right now"), nil
	}

	ref := parseEmoteReference(r.UserInput)
	target, err := adapter.FindEmote(ctx, ref.IDOrName)
	if err != nil {
		return fail("could not find that emote"), nil
	}

	banned, err := deps.DB.IsEmoteBanned(r.ChannelID, cfg.Platform, target.ID)
	if err != nil {
		return Outcome{}, err
	}
	if banned {
		return fail("that emote is banned in this channel"), nil
	}

	added, err := adapter.Add(ctx, r.ChannelID, target.ID)
	if err != nil {
		return fail("the provider rejected adding " + target.Name), nil
	}

	var expiresAt *time.Time
	if cfg.Expiration > 0 {
		t := deps.now().Add(cfg.Expiration)
		expiresAt = &t
	}

	slot := available[0]
	if err := deps.DB.FillSlot(slot.ID, added.ID, target.Name, r.UserLogin, expiresAt); err != nil {
		return Outcome{}, err
	}

	if len(available) == 1 {
		if err := deps.DB.SetPause(r.RewardID, true, nil); err != nil {
			deps.Log.Warn().Err(err).Str("reward_id", r.RewardID).Msg("executor: pausing reward after last slot filled failed")
		}
	}

	outcome := ok(fmt.Sprintf("added %s", target.Name))
	if cfg.ReplyOnSuccess {
		outcome.Announce = fmt.Sprintf("added %s", target.Name)
	}
	return outcome, nil
}
