package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Auth errors surfaced to the credential store and token refresher.
var (
	ErrInvalidRefreshToken = errors.New("platform: invalid refresh token")
	ErrMissingClientID     = errors.New("platform: client id is required")
	ErrMissingClientSecret = errors.New("platform: client secret is required")
)

// Token is an OAuth token as returned by the platform's token endpoint.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	Scope        []string  `json:"scope,omitempty"`
	ExpiresAt    time.Time `json:"-"`
}

// IsExpired reports whether the token's lifetime has elapsed.
func (t *Token) IsExpired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(t.ExpiresAt)
}

func (t *Token) setExpiry() {
	if t.ExpiresIn > 0 {
		t.ExpiresAt = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
}

// DefaultTokenURL is the production OAuth token endpoint, used when the
// caller doesn't override AuthConfig.TokenURL.
const DefaultTokenURL = "https://id.twitch.tv/oauth2/token"

// AuthConfig holds one provider's client credentials.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// AuthClient performs the refresh-token grant against a provider's OAuth
// token endpoint. One AuthClient exists per provider (the streaming
// platform, the music provider); the emote adapters are built with a
// static token and run no OAuth flow.
type AuthClient struct {
	config     AuthConfig
	httpClient *http.Client
	token      *Token
	mu         sync.RWMutex
}

// NewAuthClient builds an AuthClient for one provider.
func NewAuthClient(config AuthConfig) *AuthClient {
	return &AuthClient{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetCurrentToken installs the token Client.Do attaches to outgoing
// requests when a Request does not carry its own Token override.
func (c *AuthClient) SetCurrentToken(token *Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *AuthClient) currentToken() *Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// RefreshToken exchanges a stored refresh token for a new access token.
// A provider rejection (invalid_grant) is surfaced as
// ErrInvalidRefreshToken so the caller can mark the credential broken
// rather than retry it forever (spec.md §7).
func (c *AuthClient) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	if c.config.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if c.config.ClientSecret == "" {
		return nil, ErrMissingClientSecret
	}

	data := url.Values{
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}

	return c.requestToken(ctx, data)
}

// ExchangeCode trades an OAuth authorization code for a token, used once
// by cmd/setup when a streamer or the bot account first authorizes the
// application. redirectURI must match the one used to obtain code.
func (c *AuthClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error) {
	if c.config.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if c.config.ClientSecret == "" {
		return nil, ErrMissingClientSecret
	}

	data := url.Values{
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {redirectURI},
	}

	return c.requestToken(ctx, data)
}

func (c *AuthClient) requestToken(ctx context.Context, data url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("platform: building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("platform: token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return nil, ErrInvalidRefreshToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "token refresh failed"}
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("platform: decoding token response: %w", err)
	}
	token.setExpiry()
	return &token, nil
}
