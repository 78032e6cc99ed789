package platform

import (
	"context"
	"net/url"
)

// User is the subset of the platform's user object the dispatcher needs
// for id/login resolution.
type User struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// GetUsers resolves user ids and/or logins to User records. At least one
// of ids or logins must be non-empty.
func (c *Client) GetUsers(ctx context.Context, ids, logins []string) (*Response[User], error) {
	q := url.Values{}
	for _, id := range ids {
		q.Add("id", id)
	}
	for _, login := range logins {
		q.Add("login", login)
	}

	var resp Response[User]
	if err := c.get(ctx, "/users", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
