package platform

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, result interface{}) error {
	return c.Do(ctx, &Request{Method: http.MethodGet, Endpoint: endpoint, Query: query}, result)
}

func (c *Client) post(ctx context.Context, endpoint string, query url.Values, body, result interface{}) error {
	return c.Do(ctx, &Request{Method: http.MethodPost, Endpoint: endpoint, Query: query, Body: body}, result)
}

func (c *Client) patch(ctx context.Context, endpoint string, query url.Values, body, result interface{}) error {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Endpoint: endpoint, Query: query, Body: body}, result)
}

func (c *Client) delete(ctx context.Context, endpoint string, query url.Values, result interface{}) error {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Endpoint: endpoint, Query: query}, result)
}
