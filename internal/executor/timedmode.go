package executor

import (
	"context"
	"time"

	"github.com/nerix-tools/redemptiond/internal/platform"
	"github.com/nerix-tools/redemptiond/internal/store"
)

// ExecuteTimedMode implements spec.md §4.4.2 for both SubscriberMode
// and EmoteOnlyMode, distinguished by kind.
func ExecuteTimedMode(ctx context.Context, r Redemption, kind store.TimedModeKind, cfg store.TimedModeConfig, deps Deps) (Outcome, error) {
	duration, err := parseDuration(cfg.Duration)
	if err != nil {
		return fail("invalid duration configured"), nil
	}

	settings, err := deps.Platform.GetChatSettings(ctx, r.ChannelID, r.ChannelID)
	if err != nil {
		return Outcome{}, err
	}

	alreadyOn := (kind == store.TimedModeSubscriber && settings.SubscriberMode) ||
		(kind == store.TimedModeEmoteOnly && settings.EmoteMode)
	if alreadyOn {
		return fail("that mode is already active"), nil
	}

	params := platform.UpdateChatModeParams{BroadcasterID: r.ChannelID, ModeratorID: r.ChannelID}
	on := true
	if kind == store.TimedModeSubscriber {
		params.SubscriberMode = &on
	} else {
		params.EmoteMode = &on
	}
	if err := deps.Platform.UpdateChatMode(ctx, params); err != nil {
		return fail("the platform rejected the chat-mode change"), nil
	}

	endTS := deps.now().Add(duration)
	modeID, err := deps.DB.CreateTimedMode(r.ChannelID, kind, endTS)
	if err != nil {
		deps.Log.Warn().Err(err).Str("channel_id", r.ChannelID).Msg("executor: persisting timed mode row failed")
	}

	time.AfterFunc(duration, func() {
		deps.turnOffMode(r.ChannelID, kind)
		if modeID != 0 {
			if err := deps.DB.DeleteTimedMode(modeID); err != nil {
				deps.Log.Warn().Err(err).Int64("timed_mode_id", modeID).Msg("executor: clearing timed mode row failed")
			}
		}
	})

	return ok("enabled timed mode"), nil
}

// turnOffMode is the one-shot task ExecuteTimedMode schedules to reverse
// a timed mode. The timer lives only in this process: nothing re-arms it
// from the persisted TimedMode row after a restart, so a mode whose timer
// was lost stays on.
func (d Deps) turnOffMode(channelID string, kind store.TimedModeKind) {
	ctx := context.Background()
	params := platform.UpdateChatModeParams{BroadcasterID: channelID, ModeratorID: channelID}
	off := false
	if kind == store.TimedModeSubscriber {
		params.SubscriberMode = &off
	} else {
		params.EmoteMode = &off
	}
	if err := d.Platform.UpdateChatMode(ctx, params); err != nil {
		d.Log.Warn().Err(err).Str("channel_id", channelID).Msg("executor: reverting timed mode failed")
	}
}
