package platform

import (
	"context"
	"net/url"
	"time"
)

// RedemptionStatus is the three-valued outcome a reward executor reports
// back to the platform.
type RedemptionStatus string

const (
	RedemptionFulfilled RedemptionStatus = "FULFILLED"
	RedemptionCanceled  RedemptionStatus = "CANCELED"
)

// Redemption mirrors the notification payload the webhook ingress
// decodes (spec.md §6).
type Redemption struct {
	BroadcasterID string    `json:"broadcaster_user_id"`
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	UserLogin     string    `json:"user_login"`
	UserName      string    `json:"user_name"`
	UserInput     string    `json:"user_input"`
	Status        string    `json:"status"`
	RedeemedAt    time.Time `json:"redeemed_at"`
	Reward        struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Cost  int    `json:"cost"`
	} `json:"reward"`
}

// UpdateRedemptionStatusParams reports a redemption's outcome back to the
// platform, the final step of every reward executor (spec.md §4.4).
type UpdateRedemptionStatusParams struct {
	BroadcasterID string           `json:"-"`
	RewardID      string           `json:"-"`
	ID            string           `json:"-"`
	Status        RedemptionStatus `json:"status"`
}

// UpdateRedemptionStatus marks a redemption fulfilled or canceled
// (refunding the viewer's channel points). Requires
// channel:manage:redemptions scope.
func (c *Client) UpdateRedemptionStatus(ctx context.Context, params UpdateRedemptionStatusParams) error {
	q := url.Values{}
	q.Set("broadcaster_id", params.BroadcasterID)
	q.Set("reward_id", params.RewardID)
	q.Add("id", params.ID)

	var resp Response[Redemption]
	return c.patch(ctx, "/channel_points/custom_rewards/redemptions", q, params, &resp)
}

// PauseRewardParams toggles the "is enabled" state of a custom reward,
// used when the live-state scheduler suspends a reward (spec.md §4.5).
type PauseRewardParams struct {
	BroadcasterID string `json:"-"`
	RewardID      string `json:"-"`
	IsPaused      bool   `json:"is_paused"`
}

// SetRewardPaused flips the platform-side pause flag on a custom reward.
// Requires channel:manage:redemptions scope.
func (c *Client) SetRewardPaused(ctx context.Context, params PauseRewardParams) error {
	q := url.Values{}
	q.Set("broadcaster_id", params.BroadcasterID)
	q.Set("id", params.RewardID)

	var resp Response[struct{}]
	return c.patch(ctx, "/channel_points/custom_rewards", q, params, &resp)
}

// CustomReward is the subset of the platform's custom reward object Sync
// needs to detect rewards removed on the platform side.
type CustomReward struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// GetCustomRewards lists every custom reward the bot manages for
// broadcasterID. Requires channel:read:redemptions or
// channel:manage:redemptions scope.
func (c *Client) GetCustomRewards(ctx context.Context, broadcasterID string) (*Response[CustomReward], error) {
	q := url.Values{}
	q.Set("broadcaster_id", broadcasterID)
	q.Set("only_manageable_rewards", "true")

	var resp Response[CustomReward]
	if err := c.get(ctx, "/channel_points/custom_rewards", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
