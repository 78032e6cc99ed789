package executor

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/nerix-tools/redemptiond/internal/store"
)

// ExecuteSwap implements spec.md §4.4.3: evict one emote (history or,
// absent history, a random set member) to make room, then add the
// redeemed emote, recording history on success only.
func ExecuteSwap(ctx context.Context, r Redemption, cfg store.SwapConfig, deps Deps) (Outcome, error) {
	adapter, ok := deps.Adapters[cfg.Platform]
	if !ok {
		return fail("that emote platform is not configured"), nil
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

	current, err := adapter.GetEmotes(ctx, r.ChannelID)
	if err != nil {
		return Outcome{}, err
	}
	for _, e := range current {
		if e.ID == target.ID || sameName(e.Name, target.Name) {
			return fail(target.Name + " is already added"), nil
		}
	}

	capacity, currentCount, err := adapter.GetCapacity(ctx, r.ChannelID)
	if err != nil {
		return Outcome{}, err
	}

	history, err := deps.DB.ListSwapEmotes(r.ChannelID, cfg.Platform)
	if err != nil {
		return Outcome{}, err
	}

	limitReached := cfg.Limit != nil && len(history) >= *cfg.Limit
	atCapacity := currentCount >= capacity
	mustEvict := limitReached || atCapacity

	var removedName string
	if mustEvict {
		if len(history) > 0 {
			victims, err := deps.DB.DeleteOldestSwapEmotes(r.ChannelID, cfg.Platform, 1)
			if err != nil {
				return Outcome{}, err
			}
			if len(victims) > 0 {
				victim := victims[0]
				if err := adapter.Remove(ctx, r.ChannelID, victim.EmoteID); err != nil {
					deps.Log.Warn().Err(err).Str("emote_id", victim.EmoteID).Msg("executor: removing evicted swap emote failed")
				}
				removedName = victim.Name
			}
		} else if len(current) > 0 {
			victim := current[rand.Intn(len(current))]
			if err := adapter.Remove(ctx, r.ChannelID, victim.ID); err != nil {
				deps.Log.Warn().Err(err).Str("emote_id", victim.ID).Msg("executor: removing randomly evicted emote failed")
			}
			removedName = victim.Name
		}
	}

	added, err := adapter.Add(ctx, r.ChannelID, target.ID)
	if err != nil {
		return fail("the provider rejected adding " + target.Name), nil
	}

	if err := deps.DB.AddSwapEmote(store.SwapEmote{
		ChannelID: r.ChannelID,
		Platform:  cfg.Platform,
		EmoteID:   added.ID,
		Name:      target.Name,
		AddedBy:   r.UserLogin,
		RewardID:  r.RewardID,
	}); err != nil {
		deps.Log.Warn().Err(err).Msg("executor: recording swap history failed after a successful add")
	}

	outcome := ok(fmt.Sprintf("added %s", target.Name))
	if cfg.ReplyOnSuccess {
		if removedName != "" {
			outcome.Announce = fmt.Sprintf("☑ Added %s - 🗑 Removed %s", target.Name, removedName)
		} else {
			outcome.Announce = fmt.Sprintf("☑ Added %s", target.Name)
		}
	}
	return outcome, nil
}

func sameName(a, b string) bool {
	return strings.EqualFold(a, b)
}
