package platform

import (
	"context"
	"net/url"
)

// SendWhisperParams addresses a whisper from the bot identity to a
// redeemer, used by reward executors to refund a redemption that could
// not be completed (spec.md §7).
type SendWhisperParams struct {
	FromUserID string `json:"-"`
	ToUserID   string `json:"-"`
	Message    string `json:"message"`
}

// SendWhisper sends a whisper. Requires user:manage:whispers scope.
func (c *Client) SendWhisper(ctx context.Context, params SendWhisperParams) error {
	q := url.Values{}
	q.Set("from_user_id", params.FromUserID)
	q.Set("to_user_id", params.ToUserID)
	return c.post(ctx, "/whispers", q, params, nil)
}
