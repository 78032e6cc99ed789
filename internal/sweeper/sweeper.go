// Package sweeper runs the periodic expiration sweep for emote slots:
// remove the emote from its provider, clear the slot, unpause the
// owning reward, and leave a short-lived trail so late lookups can
// explain where the emote went (spec.md §4.4.4).
package sweeper

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/nerix-tools/redemptiond/internal/emote"
	"github.com/nerix-tools/redemptiond/internal/store"
)

// interval matches spec.md §4.4.4's two-minute sweep cadence.
const interval = "@every 2m"

// expiredSlotTTL is how long a swept slot's snapshot is kept under the
// expired-slot cache key, so a redeemer asking "what happened to my
// emote" shortly after expiry gets an answer.
const expiredSlotTTL = 5 * time.Hour

// cache is the subset of internal/cache.Cache the sweeper needs.
type cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Sweeper periodically clears expired slots across all channels.
type Sweeper struct {
	db       *store.DB
	adapters map[store.Platform]emote.Adapter
	cache    cache
	log      zerolog.Logger
	cron     *cron.Cron
}

// New builds a Sweeper. adapters must have an entry for every platform
// a slot reward can target.
func New(db *store.DB, adapters map[store.Platform]emote.Adapter, cache cache, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		db:       db,
		adapters: adapters,
		cache:    cache,
		log:      log,
		cron:     cron.New(),
	}
}

// Start schedules the periodic sweep. It does not block.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(interval, func() {
		if err := s.Tick(ctx); err != nil {
			s.log.Error().Err(err).Msg("sweeper: tick failed")
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule, waiting for any in-flight tick to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// expiredSlotSnapshot is cached under expired-slot:{channel}:{name} so a
// late lookup can explain where an emote went.
type expiredSlotSnapshot struct {
	EmoteID   string    `json:"emote_id"`
	Name      string    `json:"name"`
	ExpiredAt time.Time `json:"expired_at"`
}

// Tick runs one sweep synchronously, so tests and operators can trigger
// it without waiting for the cron schedule.
func (s *Sweeper) Tick(ctx context.Context) error {
	slots, err := s.db.ListExpiringSlots()
	if err != nil {
		return err
	}

	for _, slot := range slots {
		s.sweepSlot(ctx, slot)
	}
	return nil
}

func (s *Sweeper) sweepSlot(ctx context.Context, slot store.Slot) {
	log := s.log.With().Int64("slot_id", slot.ID).Str("channel_id", slot.ChannelID).Logger()

	if adapter, ok := s.adapters[slot.Platform]; ok && slot.EmoteID != nil {
		if err := adapter.Remove(ctx, slot.ChannelID, *slot.EmoteID); err != nil {
			log.Warn().Err(err).Msg("sweeper: provider removal failed, clearing slot anyway")
		}
	}

	if s.cache != nil && slot.Name != nil {
		snapshot, err := json.Marshal(expiredSlotSnapshot{
			EmoteID:   derefOrEmpty(slot.EmoteID),
			Name:      *slot.Name,
			ExpiredAt: time.Now(),
		})
		if err == nil {
			s.cache.Set(ctx, expiredSlotKey(slot.ChannelID, *slot.Name), snapshot, expiredSlotTTL)
		}
	}

	if err := s.db.ClearSlot(slot.ID); err != nil {
		log.Error().Err(err).Msg("sweeper: clearing slot failed")
		return
	}

	if err := s.db.SetPause(slot.RewardID, false, &sql.NullTime{}); err != nil {
		log.Error().Err(err).Msg("sweeper: unpausing reward failed")
	}
}

func expiredSlotKey(channelID, name string) string {
	return "expired-slot:" + channelID + ":" + strings.ToLower(name)
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
