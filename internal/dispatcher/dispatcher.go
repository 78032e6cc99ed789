// Package dispatcher implements C9: the glue between a decoded channel
// points redemption and the executor matching its reward's configuration,
// responsible for marking the redemption fulfilled or canceled, refunding
// on failure, and recording metrics and an audit entry for every outcome.
package dispatcher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nerix-tools/redemptiond/internal/audit"
	"github.com/nerix-tools/redemptiond/internal/executor"
	"github.com/nerix-tools/redemptiond/internal/platform"
	"github.com/nerix-tools/redemptiond/internal/store"
)

// Dispatcher wires a decoded redemption to its executor and reports the
// outcome back to the platform, chat, metrics, and the audit sink.
type Dispatcher struct {
	db       *store.DB
	platform *platform.Client
	deps     executor.Deps
	audit    *audit.Sink
	log      zerolog.Logger
}

// New builds a Dispatcher. deps is passed through to every executor
// invocation; platform and db are used directly for the acknowledgement
// and refund steps that sit outside any single executor.
func New(db *store.DB, client *platform.Client, deps executor.Deps, auditSink *audit.Sink, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{db: db, platform: client, deps: deps, audit: auditSink, log: log}
}

// Dispatch handles one redemption notification. A missing reward is
// acknowledged as "not ours" with a nil error; any other failure to look
// up the reward is returned to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, r executor.Redemption) error {
	reward, err := d.db.GetReward(r.RewardID)
	if err == store.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	start := time.Now()
	outcome, execErr := executor.Execute(ctx, r, reward.Data, d.deps)
	elapsed := time.Since(start)

	status := platform.RedemptionCanceled
	reason := outcome.Reason
	if execErr != nil {
		reason = "internal error"
		d.log.Error().Err(execErr).Str("reward_id", r.RewardID).Msg("dispatcher: executor returned an error")
	} else if outcome.Success {
		status = platform.RedemptionFulfilled
	}

	observeOutcome(string(status), string(reward.Data.Kind), elapsed)

	if err := d.platform.UpdateRedemptionStatus(ctx, platform.UpdateRedemptionStatusParams{
		BroadcasterID: r.ChannelID,
		RewardID:      r.RewardID,
		ID:            r.ID,
		Status:        status,
	}); err != nil {
		d.log.Warn().Err(err).Str("redemption_id", r.ID).Msg("dispatcher: marking redemption status failed")
	}

	if status == platform.RedemptionCanceled {
		if err := d.platform.SendWhisper(ctx, platform.SendWhisperParams{
			FromUserID: r.ChannelID,
			ToUserID:   r.UserID,
			Message:    "Your redemption was refunded: " + reason,
		}); err != nil {
			d.log.Warn().Err(err).Str("redemption_id", r.ID).Msg("dispatcher: sending refund whisper failed")
		}
	} else if outcome.Announce != "" && d.deps.Chat != nil {
		if err := d.deps.Chat.SendLine(ctx, r.ChannelLogin, outcome.Announce); err != nil {
			d.log.Warn().Err(err).Str("channel", r.ChannelLogin).Msg("dispatcher: announcing redemption outcome failed")
		}
	}

	if d.audit != nil {
		color := audit.ColorSuccess
		if status == platform.RedemptionCanceled {
			color = audit.ColorWarn
		}
		if execErr != nil {
			color = audit.ColorError
		}
		d.audit.Emit(audit.Record{
			Title: "redemption " + string(status),
			Color: color,
			Fields: []audit.Field{
				{Name: "channel", Value: r.ChannelLogin},
				{Name: "user", Value: r.UserLogin},
				{Name: "reward_kind", Value: string(reward.Data.Kind)},
				{Name: "reason", Value: reason},
			},
		})
	}

	return nil
}
