package platform

import "time"

// Subscription types the webhook ingress dispatches on.
const (
	SubscriptionRedemptionAdd = "channel.channel_points_custom_reward_redemption.add"
	SubscriptionStreamOnline  = "stream.online"
	SubscriptionStreamOffline = "stream.offline"
)

// StreamOnlineEvent is the notification body for SubscriptionStreamOnline.
type StreamOnlineEvent struct {
	BroadcasterUserID string    `json:"broadcaster_user_id"`
	Type              string    `json:"type"`
	StartedAt         time.Time `json:"started_at"`
}

// StreamOfflineEvent is the notification body for SubscriptionStreamOffline.
type StreamOfflineEvent struct {
	BroadcasterUserID string `json:"broadcaster_user_id"`
}
