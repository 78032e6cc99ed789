package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerix-tools/redemptiond/internal/store"
)

// ExecuteRemoveEmote implements spec.md §4.4.5: resolve the input to a
// slot or swap-history record, remove it from the provider, and delete
// the matching internal record. A matched slot is cleared and its
// reward unpaused immediately, rather than waiting for the sweeper.
func ExecuteRemoveEmote(ctx context.Context, r Redemption, cfg store.RemoveEmoteConfig, deps Deps) (Outcome, error) {
	adapter, ok := deps.Adapters[cfg.Platform]
	if !ok {
		return fail("that emote platform is not configured"), nil
	}

	ref := parseEmoteReference(r.UserInput)

	slot, err := deps.DB.FindSlotByEmoteID(r.ChannelID, cfg.Platform, ref.IDOrName)
	if err != nil {
		return Outcome{}, err
	}

	history, err := deps.DB.ListSwapEmotes(r.ChannelID, cfg.Platform)
	if err != nil {
		return Outcome{}, err
	}
	swapMatch := findSwapEmote(history, ref.IDOrName)

	if slot == nil && swapMatch == nil {
		resolved, err := adapter.FindEmote(ctx, ref.IDOrName)
		if err != nil {
			return fail("could not find that emote"), nil
		}
		slot, err = deps.DB.FindSlotByEmoteID(r.ChannelID, cfg.Platform, resolved.ID)
		if err != nil {
			return Outcome{}, err
		}
		swapMatch = findSwapEmote(history, resolved.ID)
		if swapMatch == nil {
			swapMatch = findSwapEmote(history, resolved.Name)
		}
	}

	switch {
	case slot != nil:
		if err := adapter.Remove(ctx, r.ChannelID, *slot.EmoteID); err != nil {
			deps.Log.Warn().Err(err).Str("emote_id", *slot.EmoteID).Msg("executor: removing slot emote from provider failed")
		}
		if err := deps.DB.ClearSlot(slot.ID); err != nil {
			return Outcome{}, err
		}
		if err := deps.DB.SetPause(slot.RewardID, false, nil); err != nil {
			deps.Log.Warn().Err(err).Str("reward_id", slot.RewardID).Msg("executor: unpausing reward after manual emote removal failed")
		}
		name := ""
		if slot.Name != nil {
			name = *slot.Name
		}
		return finishRemove(name, cfg.ReplyOnSuccess), nil

	case swapMatch != nil:
		if err := adapter.Remove(ctx, r.ChannelID, swapMatch.EmoteID); err != nil {
			deps.Log.Warn().Err(err).Str("emote_id", swapMatch.EmoteID).Msg("executor: removing swap emote from provider failed")
		}
		if err := deps.DB.DeleteSwapEmoteByEmoteID(r.ChannelID, cfg.Platform, swapMatch.EmoteID); err != nil {
			return Outcome{}, err
		}
		return finishRemove(swapMatch.Name, cfg.ReplyOnSuccess), nil

	default:
		return fail("that emote is not currently added by this bot"), nil
	}
}

func finishRemove(name string, announce bool) Outcome {
	outcome := ok(fmt.Sprintf("removed %s", name))
	if announce {
		outcome.Announce = fmt.Sprintf("removed %s", name)
	}
	return outcome
}

func findSwapEmote(history []store.SwapEmote, idOrName string) *store.SwapEmote {
	for i := range history {
		if history[i].EmoteID == idOrName || strings.EqualFold(history[i].Name, idOrName) {
			return &history[i]
		}
	}
	return nil
}
