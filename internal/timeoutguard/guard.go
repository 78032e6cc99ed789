// Package timeoutguard tracks the most recent timeout issued against
// each (channel, user) pair, so reward executors can tell whether
// issuing a new timeout would clobber a stricter moderator action.
package timeoutguard

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/nerix-tools/redemptiond/internal/store"
)

// overridableFloor is the duration below which a channel event is
// treated as effectively an untimeout rather than a real restriction.
const overridableFloor = 30 * time.Second

// Guard maintains the timeouts table and answers overridability checks.
type Guard struct {
	db  *store.DB
	log zerolog.Logger
}

// New builds a Guard over db.
func New(db *store.DB, log zerolog.Logger) *Guard {
	return &Guard{db: db, log: log}
}

// OnChannelEvent records a timeout (or clears one) observed on the
// platform for channel/user, independent of who issued it. Durations at
// or below overridableFloor are treated as an untimeout: the row is
// deleted so IsOverridable reports true again immediately.
func (g *Guard) OnChannelEvent(channelID, userID string, duration time.Duration) error {
	if duration <= overridableFloor {
		return g.db.DeleteTimeout(channelID, userID)
	}
	return g.db.RecordTimeout(channelID, userID, time.Now().Add(duration))
}

// OnUntimeout clears a tracked timeout, called after a caller-specified
// grace period so a race with an in-flight reward redemption can settle.
func (g *Guard) OnUntimeout(channelID, userID string) error {
	return g.db.DeleteTimeout(channelID, userID)
}

// IsOverridable reports whether issuing a new timeout for channel/user
// would not clobber a stricter, still-active moderator action.
func (g *Guard) IsOverridable(channelID, userID string) (bool, error) {
	row, err := g.db.GetTimeout(channelID, userID)
	if err == store.ErrNotFound {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return row.ExpiresAt.Before(time.Now()), nil
}

// GC deletes every row whose expiry has passed. cmd/redemptiond runs it
// on a one-minute ticker.
func (g *Guard) GC() error {
	n, err := g.db.ListExpiredTimeouts()
	if err != nil {
		return err
	}
	for _, row := range n {
		if err := g.db.DeleteTimeout(row.ChannelID, row.UserID); err != nil {
			g.log.Warn().Err(err).Str("channel_id", row.ChannelID).Str("user_id", row.UserID).Msg("timeoutguard: gc delete failed")
		}
	}
	return nil
}
