package platform

import (
	"context"
	"net/url"
	"time"
)

// Subscription types the dispatcher registers. Version strings follow
// the platform's own EventSub versioning scheme.
const (
	SubscriptionTypeRewardRedemptionAdd = "channel.channel_points_custom_reward_redemption.add"
	SubscriptionTypeStreamOnline        = "stream.online"
	SubscriptionTypeStreamOffline       = "stream.offline"

	SubscriptionVersion1 = "1"
)

// Subscription mirrors a registered subscription as the platform reports it.
type Subscription struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Type      string            `json:"type"`
	Version   string            `json:"version"`
	Condition map[string]string `json:"condition"`
	CreatedAt time.Time         `json:"created_at"`
	Transport Transport         `json:"transport"`
}

// Transport describes where subscription notifications are delivered.
type Transport struct {
	Method   string `json:"method"`
	Callback string `json:"callback,omitempty"`
	Secret   string `json:"secret,omitempty"`
}

// ListSubscriptionsParams filters ListSubscriptions.
type ListSubscriptionsParams struct {
	Status string
	Type   string
}

type subscriptionListResponse struct {
	Data       []Subscription `json:"data"`
	Pagination *Pagination    `json:"pagination,omitempty"`
}

// ListSubscriptions returns currently registered subscriptions, used by
// setup tooling to detect stale or duplicate registrations.
func (c *Client) ListSubscriptions(ctx context.Context, params ListSubscriptionsParams) ([]Subscription, error) {
	q := url.Values{}
	if params.Status != "" {
		q.Set("status", params.Status)
	}
	if params.Type != "" {
		q.Set("type", params.Type)
	}

	var resp subscriptionListResponse
	if err := c.get(ctx, "/eventsub/subscriptions", q, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreateSubscriptionParams registers a new webhook subscription.
type CreateSubscriptionParams struct {
	Type      string            `json:"type"`
	Version   string            `json:"version"`
	Condition map[string]string `json:"condition"`
	Transport Transport         `json:"transport"`
}

// CreateSubscription registers a new subscription with the platform.
func (c *Client) CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*Subscription, error) {
	var resp subscriptionListResponse
	if err := c.post(ctx, "/eventsub/subscriptions", nil, params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return &resp.Data[0], nil
}

// DeleteSubscription removes a registered subscription by id.
func (c *Client) DeleteSubscription(ctx context.Context, id string) error {
	q := url.Values{}
	q.Set("id", id)
	return c.delete(ctx, "/eventsub/subscriptions", q, nil)
}

// RewardRedemptionCondition builds the condition map for a reward
// redemption subscription, optionally scoped to one reward id.
func RewardRedemptionCondition(broadcasterID, rewardID string) map[string]string {
	cond := map[string]string{"broadcaster_user_id": broadcasterID}
	if rewardID != "" {
		cond["reward_id"] = rewardID
	}
	return cond
}

// BroadcasterCondition builds the condition map for stream online/offline
// subscriptions.
func BroadcasterCondition(broadcasterID string) map[string]string {
	return map[string]string{"broadcaster_user_id": broadcasterID}
}
