// Package platform is a generic streaming-platform API client, adapted
// from a Twitch Helix client into a thinner surface covering only what
// the redemption dispatcher needs: channel points, moderation, chat
// modes, whispers, users and EventSub subscription management.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DefaultRateLimit is the default bucket size for the platform's rate
// limiter, refilled once per minute.
const DefaultRateLimit = 800

// DefaultBaseURL is the production API root, used when the caller
// doesn't override it via WithBaseURL.
const DefaultBaseURL = "https://api.twitch.tv/helix"

// Client is a streaming-platform API client bound to a single bot or
// streamer identity via authClient.
type Client struct {
	clientID   string
	authClient *AuthClient
	httpClient *http.Client

	rateLimitLimit     int
	rateLimitRemaining int
	rateLimitReset     time.Time
	rateMu             sync.Mutex

	maxRetries     int
	retryEnabled   bool
	maxRetryWait   time.Duration
	baseRetryDelay time.Duration

	cache        Cache
	cacheTTL     time.Duration
	cacheEnabled bool

	baseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the client's transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the API base URL, used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRetry toggles automatic retry on 429 responses.
func WithRetry(enabled bool, maxRetries int) Option {
	return func(c *Client) {
		c.retryEnabled = enabled
		c.maxRetries = maxRetries
	}
}

// WithCache attaches a response cache for GET requests.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
		c.cacheEnabled = cache != nil
	}
}

// NewClient builds a Client bound to authClient's token.
func NewClient(clientID, baseURL string, authClient *AuthClient, opts ...Option) *Client {
	c := &Client{
		clientID:           clientID,
		authClient:         authClient,
		httpClient:         &http.Client{Timeout: 30 * time.Second},
		baseURL:            baseURL,
		rateLimitLimit:     DefaultRateLimit,
		rateLimitRemaining: DefaultRateLimit,
		retryEnabled:       true,
		maxRetries:         3,
		maxRetryWait:       60 * time.Second,
		baseRetryDelay:     time.Second,
		cacheTTL:           5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request is one outgoing API call.
type Request struct {
	Method   string
	Endpoint string
	Query    url.Values
	Body     interface{}
	Token    *Token // overrides the client's bound token, e.g. per-subject calls
}

// Response is the generic envelope the platform wraps list responses in.
type Response[T any] struct {
	Data       []T         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination carries the cursor for a follow-up request.
type Pagination struct {
	Cursor string `json:"cursor,omitempty"`
}

// APIError is a non-2xx response from the platform.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform api error %d: %s", e.StatusCode, e.Message)
}

// RateLimitError is returned once retries on a 429 are exhausted.
type RateLimitError struct {
	ResetAt    time.Time
	Remaining  int
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("platform rate limit exceeded: %d/%d remaining, resets in %v", e.Remaining, e.Limit, e.RetryAfter.Round(time.Second))
}

// IsRateLimitError reports whether err is a RateLimitError.
func IsRateLimitError(err error) bool {
	_, ok := err.(*RateLimitError)
	return ok
}

// Do executes req, retrying on rate-limit responses and consulting the
// cache for GET requests.
func (c *Client) Do(ctx context.Context, req *Request, result interface{}) error {
	if c.cacheEnabled && req.Method == http.MethodGet {
		key := c.cacheKey(req.Endpoint, req.Query.Encode())
		if cached := c.cache.Get(ctx, key); cached != nil {
			if result != nil {
				return json.Unmarshal(cached, result)
			}
			return nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		body, status, headers, err := c.doOnce(ctx, req)
		if err != nil {
			return err
		}
		c.updateRateLimit(headers)

		if status == http.StatusTooManyRequests {
			if !c.retryEnabled || attempt >= c.maxRetries {
				c.rateMu.Lock()
				resetAt, remaining, limit := c.rateLimitReset, c.rateLimitRemaining, c.rateLimitLimit
				c.rateMu.Unlock()
				retryAfter := time.Until(resetAt)
				if retryAfter < 0 {
					retryAfter = 0
				}
				return &RateLimitError{ResetAt: resetAt, Remaining: remaining, Limit: limit, RetryAfter: retryAfter}
			}

			c.rateMu.Lock()
			wait := time.Until(c.rateLimitReset)
			c.rateMu.Unlock()
			if wait <= 0 {
				wait = c.baseRetryDelay
			}
			if wait > c.maxRetryWait {
				wait = c.maxRetryWait
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			lastErr = &APIError{StatusCode: status, Message: "rate limited"}
			continue
		}

		if status < 200 || status >= 300 {
			return &APIError{StatusCode: status, Message: string(body)}
		}

		if result != nil && len(body) > 0 {
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("platform: decoding response: %w", err)
			}
		}

		if c.cacheEnabled && req.Method == http.MethodGet {
			key := c.cacheKey(req.Endpoint, req.Query.Encode())
			c.cache.Set(ctx, key, body, c.cacheTTL)
		}
		return nil
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, req *Request) (body []byte, status int, headers http.Header, err error) {
	reqURL := c.baseURL + req.Endpoint
	if len(req.Query) > 0 {
		reqURL += "?" + req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		b, merr := json.Marshal(req.Body)
		if merr != nil {
			return nil, 0, nil, fmt.Errorf("platform: marshaling request body: %w", merr)
		}
		bodyReader = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, reqURL, bodyReader)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("platform: building request: %w", err)
	}
	httpReq.Header.Set("Client-Id", c.clientID)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	token := req.Token
	if token == nil && c.authClient != nil {
		token = c.authClient.currentToken()
	}
	if token != nil && token.AccessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token.AccessToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("platform: executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("platform: reading response body: %w", err)
	}
	return respBody, resp.StatusCode, resp.Header.Clone(), nil
}

func (c *Client) updateRateLimit(headers http.Header) {
	if headers == nil {
		return
	}
	c.rateMu.Lock()
	defer c.rateMu.Unlock()
	if remaining := headers.Get("Ratelimit-Remaining"); remaining != "" {
		fmt.Sscanf(remaining, "%d", &c.rateLimitRemaining)
	}
	if limit := headers.Get("Ratelimit-Limit"); limit != "" {
		fmt.Sscanf(limit, "%d", &c.rateLimitLimit)
	}
	if reset := headers.Get("Ratelimit-Reset"); reset != "" {
		var epoch int64
		if _, err := fmt.Sscanf(reset, "%d", &epoch); err == nil {
			c.rateLimitReset = time.Unix(epoch, 0)
		}
	}
}

func (c *Client) cacheKey(endpoint, query string) string {
	return c.baseURL + "|" + endpoint + "|" + query
}
