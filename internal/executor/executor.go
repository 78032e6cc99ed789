// Package executor implements the per-reward-type execution logic
// dispatched by internal/dispatcher: one function per reward kind,
// sharing the Deps bundle and Outcome/Redemption types defined here.
package executor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nerix-tools/redemptiond/internal/chatsink"
	"github.com/nerix-tools/redemptiond/internal/credstore"
	"github.com/nerix-tools/redemptiond/internal/emote"
	"github.com/nerix-tools/redemptiond/internal/musicprovider"
	"github.com/nerix-tools/redemptiond/internal/platform"
	"github.com/nerix-tools/redemptiond/internal/store"
	"github.com/nerix-tools/redemptiond/internal/timeoutguard"
)

// Redemption is the subset of a channel-points redemption notification
// the executors need, decoded from the webhook event payload.
type Redemption struct {
	ID            string
	ChannelID     string
	ChannelLogin  string
	RewardID      string
	UserID        string
	UserLogin     string
	UserInput     string
	RedeemedAt    time.Time
}

// Outcome is what an executor reports back to the dispatcher.
type Outcome struct {
	// Success is false if the reward should be refunded.
	Success bool
	// Reason is a human-readable explanation, used both for the
	// refund whisper and for the audit entry.
	Reason string
	// Announce, if non-empty, is posted to the channel's chat.
	Announce string
}

func ok(reason string) Outcome    { return Outcome{Success: true, Reason: reason} }
func fail(reason string) Outcome  { return Outcome{Success: false, Reason: reason} }

// Deps bundles every collaborator an executor might need. Individual
// executors use only the subset relevant to their reward kind.
type Deps struct {
	DB            *store.DB
	Platform      *platform.Client
	Chat          chatsink.Sink
	Guard         *timeoutguard.Guard
	Adapters      map[store.Platform]emote.Adapter
	MusicProvider *musicprovider.Client
	Credentials   credstore.Store
	Log           zerolog.Logger
	Now           func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Execute dispatches redemption to the executor matching cfg's kind. The
// dispatcher calls it for every redemption; each reward-kind function is
// also exported so it can be exercised directly in tests.
func Execute(ctx context.Context, r Redemption, cfg store.RewardConfig, deps Deps) (Outcome, error) {
	switch cfg.Kind {
	case store.RewardTimeout:
		return ExecuteTimeout(ctx, r, *cfg.Timeout, deps)
	case store.RewardSubscriberMode:
		return ExecuteTimedMode(ctx, r, store.TimedModeSubscriber, *cfg.TimedMode, deps)
	case store.RewardEmoteOnlyMode:
		return ExecuteTimedMode(ctx, r, store.TimedModeEmoteOnly, *cfg.TimedMode, deps)
	case store.RewardSwap:
		return ExecuteSwap(ctx, r, *cfg.Swap, deps)
	case store.RewardSlot:
		return ExecuteSlotRedeem(ctx, r, *cfg.Slot, deps)
	case store.RewardRemoveEmote:
		return ExecuteRemoveEmote(ctx, r, *cfg.RemoveEmote, deps)
	case store.RewardMusicSkip:
		return ExecuteMusicSkip(ctx, r, deps)
	case store.RewardMusicQueue:
		return ExecuteMusicQueue(ctx, r, *cfg.MusicQueue, deps)
	case store.RewardMusicPlay:
		return ExecuteMusicPlay(ctx, r, *cfg.MusicPlay, deps)
	default:
		return fail("unknown reward kind"), nil
	}
}
