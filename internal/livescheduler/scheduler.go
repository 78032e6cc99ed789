// Package livescheduler pauses and unpauses live-delay rewards as a
// channel goes online and offline, per spec.md §4.5.
package livescheduler

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nerix-tools/redemptiond/internal/store"
)

// OnlineEvent is emitted when a channel's stream goes online.
type OnlineEvent struct {
	ChannelID string
	StartedAt time.Time
}

// OfflineEvent is emitted when a channel's stream goes offline.
type OfflineEvent struct {
	ChannelID string
}

// RewardPauser is the platform-side capability the scheduler needs:
// pausing and unpausing a reward via the channel's own credential.
type RewardPauser interface {
	SetRewardPaused(ctx context.Context, broadcasterID, rewardID string, paused bool) error
}

// Announcer posts a single chat line summarizing a pause batch.
type Announcer interface {
	Announce(ctx context.Context, channelID, message string) error
}

// Scheduler drives C5: it owns one delayed unpause task per currently
// paused live-delay reward.
type Scheduler struct {
	db      *store.DB
	platform RewardPauser
	chat    Announcer
	log     zerolog.Logger

	mu    sync.Mutex
	timers map[string]*time.Timer // keyed by reward id
}

// New builds a Scheduler.
func New(db *store.DB, platform RewardPauser, chat Announcer, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		db:       db,
		platform: platform,
		chat:     chat,
		log:      log,
		timers:   make(map[string]*time.Timer),
	}
}

// Start runs startup recovery: every reward with a pending unpause_at is
// unpaused immediately and its timer cleared, since a crash between
// pause and scheduling would otherwise leave it stuck paused forever.
func (s *Scheduler) Start(ctx context.Context) error {
	rewards, err := s.db.ListAllPendingUnpause()
	if err != nil {
		return fmt.Errorf("livescheduler: listing pending unpause rewards: %w", err)
	}
	for _, r := range rewards {
		s.unpauseNow(ctx, r)
	}
	return nil
}

// HandleOnline implements the online half of spec.md §4.5: every
// live-delay reward not already paused is paused, with a timer armed to
// unpause it after its configured delay. A single chat line summarizes
// how many rewards were paused.
func (s *Scheduler) HandleOnline(ctx context.Context, ev OnlineEvent) error {
	rewards, err := s.db.ListRewardsForChannel(ev.ChannelID)
	if err != nil {
		return fmt.Errorf("livescheduler: listing rewards for %s: %w", ev.ChannelID, err)
	}

	paused := 0
	for _, r := range rewards {
		if r.LiveDelay == nil || r.IsPaused {
			continue
		}
		unpauseAt := time.Now().Add(*r.LiveDelay)
		if err := s.platform.SetRewardPaused(ctx, ev.ChannelID, r.ID, true); err != nil {
			s.log.Warn().Err(err).Str("reward_id", r.ID).Msg("livescheduler: pausing reward failed")
			continue
		}
		if err := s.db.SetPause(r.ID, true, &sql.NullTime{Time: unpauseAt, Valid: true}); err != nil {
			s.log.Warn().Err(err).Str("reward_id", r.ID).Msg("livescheduler: recording pause failed")
			continue
		}
		s.armUnpause(r.ID, ev.ChannelID, *r.LiveDelay)
		paused++
	}

	if paused > 0 && s.chat != nil {
		msg := fmt.Sprintf("paused %d reward(s) until the live delay elapses", paused)
		if err := s.chat.Announce(ctx, ev.ChannelID, msg); err != nil {
			s.log.Warn().Err(err).Msg("livescheduler: announcement failed")
		}
	}
	return nil
}

// HandleOffline implements the offline half of spec.md §4.5: every
// reward with a pending unpause is unpaused immediately, and its
// scheduled timer is cancelled.
func (s *Scheduler) HandleOffline(ctx context.Context, ev OfflineEvent) error {
	rewards, err := s.db.ListPendingUnpauseForChannel(ev.ChannelID)
	if err != nil {
		return fmt.Errorf("livescheduler: listing pending-unpause rewards for %s: %w", ev.ChannelID, err)
	}
	for _, r := range rewards {
		s.cancelTimer(r.ID)
		s.unpauseNow(ctx, r)
	}
	return nil
}

// armUnpause schedules a one-shot unpause after delay, capturing
// channelID and rewardID by value so the closure needs no external
// state once fired.
func (s *Scheduler) armUnpause(rewardID, channelID string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[rewardID]; ok {
		existing.Stop()
	}
	s.timers[rewardID] = time.AfterFunc(delay, func() {
		ctx := context.Background()
		r, err := s.db.GetReward(rewardID)
		if err != nil {
			s.log.Warn().Err(err).Str("reward_id", rewardID).Msg("livescheduler: delayed unpause lookup failed")
			return
		}
		s.unpauseNow(ctx, *r)
	})
}

func (s *Scheduler) cancelTimer(rewardID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[rewardID]; ok {
		t.Stop()
		delete(s.timers, rewardID)
	}
}

// unpauseNow clears unpause_at and unpauses on the platform. Per
// spec.md §4.5, the two are attempted independently; a failure in
// either is logged and not retried.
func (s *Scheduler) unpauseNow(ctx context.Context, r store.Reward) {
	if err := s.platform.SetRewardPaused(ctx, r.ChannelID, r.ID, false); err != nil {
		s.log.Warn().Err(err).Str("reward_id", r.ID).Msg("livescheduler: unpausing reward failed")
	}
	if err := s.db.SetPause(r.ID, false, &sql.NullTime{}); err != nil {
		s.log.Warn().Err(err).Str("reward_id", r.ID).Msg("livescheduler: clearing pause state failed")
	}
}
