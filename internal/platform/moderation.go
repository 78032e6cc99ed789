package platform

import (
	"context"
	"net/url"
	"time"
)

// TimeoutUserParams issues a timeout via the moderation API, as used by
// the timeout executor (spec.md §4.4.1).
type TimeoutUserParams struct {
	BroadcasterID string
	ModeratorID   string
	UserID        string
	Duration      int // seconds, 1-1209600
	Reason        string
}

type timeoutUserData struct {
	UserID   string `json:"user_id"`
	Duration int    `json:"duration,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type timeoutUserBody struct {
	Data timeoutUserData `json:"data"`
}

// TimeoutUserResult is the platform's confirmation of an applied timeout.
type TimeoutUserResult struct {
	BroadcasterID string    `json:"broadcaster_id"`
	ModeratorID   string    `json:"moderator_id"`
	UserID        string    `json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
	EndTime       time.Time `json:"end_time,omitempty"`
}

// TimeoutUser applies a timeout to params.UserID in params.BroadcasterID's
// channel. Requires moderator:manage:banned_users scope.
func (c *Client) TimeoutUser(ctx context.Context, params TimeoutUserParams) (*TimeoutUserResult, error) {
	q := url.Values{}
	q.Set("broadcaster_id", params.BroadcasterID)
	q.Set("moderator_id", params.ModeratorID)

	body := timeoutUserBody{Data: timeoutUserData{
		UserID:   params.UserID,
		Duration: params.Duration,
		Reason:   params.Reason,
	}}

	var resp Response[TimeoutUserResult]
	if err := c.post(ctx, "/moderation/bans", q, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return &resp.Data[0], nil
}

// RemoveTimeout lifts an existing timeout early. The timeout guard only
// records and clears its own rows and never calls it; nothing in this
// module does.
func (c *Client) RemoveTimeout(ctx context.Context, broadcasterID, moderatorID, userID string) error {
	q := url.Values{}
	q.Set("broadcaster_id", broadcasterID)
	q.Set("moderator_id", moderatorID)
	q.Set("user_id", userID)
	return c.delete(ctx, "/moderation/bans", q, nil)
}

// IsVIP reports whether userID holds VIP status in broadcasterID's
// channel, consulted by the timeout executor's spare-VIPs rule
// (spec.md §4.4.1).
func (c *Client) IsVIP(ctx context.Context, broadcasterID, userID string) (bool, error) {
	q := url.Values{}
	q.Set("broadcaster_id", broadcasterID)
	q.Set("user_id", userID)

	var resp Response[struct {
		UserID string `json:"user_id"`
	}]
	if err := c.get(ctx, "/channels/vips", q, &resp); err != nil {
		return false, err
	}
	return len(resp.Data) > 0, nil
}
