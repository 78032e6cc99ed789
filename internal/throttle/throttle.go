// Package throttle implements the redemption throttle described in
// spec.md §4.6 (C6): a short TTL gate, per user and per channel, that
// coalesces duplicate webhook deliveries and caps per-viewer redemption
// rate without touching Postgres.
package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// perUserTTL is how long a (channel, user, reward) key blocks a repeat
	// redemption, guarding against duplicate EventSub deliveries.
	perUserTTL = 5 * time.Second
	// perChannelTTL throttles the channel-wide executor rate so a burst of
	// distinct redemptions cannot overwhelm the platform's moderation API.
	perChannelTTL = 1 * time.Second
)

// Throttle gates redemption processing using Redis SETNX semantics: the
// first caller to set a key within its TTL window proceeds, every other
// caller during that window is rejected.
type Throttle struct {
	client *redis.Client
}

// New builds a Throttle against an existing Redis client.
func New(client *redis.Client) *Throttle {
	return &Throttle{client: client}
}

// AllowRedemption reports whether a redemption of rewardID by userID in
// channelID may proceed right now. It takes the per-user gate and then the
// per-channel gate, each with SET NX (two separate calls, not one atomic
// step). If the per-user gate is already held it returns false at once;
// if the per-channel gate is held it releases the per-user gate it just
// took and returns false.
func (t *Throttle) AllowRedemption(ctx context.Context, channelID, userID, rewardID string) (bool, error) {
	userKey := fmt.Sprintf("throttle:user:%s:%s:%s", channelID, userID, rewardID)
	channelKey := fmt.Sprintf("throttle:channel:%s", channelID)

	userOK, err := t.client.SetNX(ctx, userKey, 1, perUserTTL).Result()
	if err != nil {
		return false, fmt.Errorf("throttle: set per-user gate: %w", err)
	}
	if !userOK {
		return false, nil
	}

	channelOK, err := t.client.SetNX(ctx, channelKey, 1, perChannelTTL).Result()
	if err != nil {
		return false, fmt.Errorf("throttle: set per-channel gate: %w", err)
	}
	if !channelOK {
		// Release the per-user gate we just took so a legitimate retry
		// after the channel gate clears is not blocked by it too.
		t.client.Del(ctx, userKey)
		return false, nil
	}

	return true, nil
}

// Release clears the per-user gate early, used when a redemption fails
// validation before doing any externally visible work and the caller
// wants an immediate retry to be possible.
func (t *Throttle) Release(ctx context.Context, channelID, userID, rewardID string) {
	userKey := fmt.Sprintf("throttle:user:%s:%s:%s", channelID, userID, rewardID)
	t.client.Del(ctx, userKey)
}
