// Package musicprovider adapts a Spotify-shaped REST API for the
// MusicSkip/MusicQueue/MusicPlay reward executors.
package musicprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.spotify.com/v1"

// DefaultTokenURL is the music provider's OAuth token endpoint, used by
// cmd/setup and cmd/redemptiond to build the music AuthClient.
const DefaultTokenURL = "https://accounts.spotify.com/api/token"

// Track is a track as returned by a lookup or search call.
type Track struct {
	URI      string
	Name     string
	Artists  []string
	Explicit bool
}

func (t Track) String() string {
	return fmt.Sprintf("%q by %s", t.Name, strings.Join(t.Artists, ", "))
}

// Player is the state of the user's currently-playing device.
type Player struct {
	IsPlaying bool
	ItemName  string
}

// Client talks to the music provider's REST API on behalf of one
// broadcaster, authenticated with a bearer access token supplied per call
// so a single Client can serve every channel's credential.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client built by New.
type Option func(*Client)

// WithBaseURL overrides the default API base URL, used in tests to
// point a Client at a local server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the client's http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// New builds a Client against the default API base URL.
func New(opts ...Option) *Client {
	c := &Client{baseURL: defaultBaseURL, httpClient: &http.Client{Timeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetTrack fetches a track by its provider id.
func (c *Client) GetTrack(ctx context.Context, accessToken, trackID string) (*Track, error) {
	var resp trackObject
	if err := c.get(ctx, accessToken, "/tracks/"+url.PathEscape(trackID), &resp); err != nil {
		return nil, fmt.Errorf("musicprovider: get track %s: %w", trackID, err)
	}
	return resp.toTrack(), nil
}

// SearchTrack returns the track results for a free-text query, best match
// first.
func (c *Client) SearchTrack(ctx context.Context, accessToken, query string) ([]Track, error) {
	q := url.Values{"q": {query}, "type": {"track"}}
	var resp struct {
		Tracks *struct {
			Items []trackObject `json:"items"`
		} `json:"tracks"`
	}
	if err := c.get(ctx, accessToken, "/search?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("musicprovider: search track %q: %w", query, err)
	}
	if resp.Tracks == nil {
		return nil, nil
	}
	tracks := make([]Track, 0, len(resp.Tracks.Items))
	for _, item := range resp.Tracks.Items {
		tracks = append(tracks, *item.toTrack())
	}
	return tracks, nil
}

// GetPlayer fetches the broadcaster's current playback state. A 204
// response (nothing playing) is reported as a non-playing Player rather
// than an error.
func (c *Client) GetPlayer(ctx context.Context, accessToken string) (*Player, error) {
	var resp playerResponse
	found, err := c.getOptional(ctx, accessToken, "/me/player/currently-playing", &resp)
	if err != nil {
		return nil, fmt.Errorf("musicprovider: get player: %w", err)
	}
	if !found {
		return &Player{}, nil
	}
	name := ""
	if resp.Item != nil {
		name = resp.Item.toTrack().String()
	}
	return &Player{IsPlaying: resp.IsPlaying, ItemName: name}, nil
}

// SkipNext skips to the next track in the broadcaster's queue.
func (c *Client) SkipNext(ctx context.Context, accessToken string) error {
	return c.post(ctx, accessToken, "/me/player/next", nil)
}

// QueueTrack appends uri to the broadcaster's playback queue.
func (c *Client) QueueTrack(ctx context.Context, accessToken, uri string) error {
	q := url.Values{"uri": {uri}}
	return c.post(ctx, accessToken, "/me/player/queue?"+q.Encode(), nil)
}

// PlayTrack replaces the broadcaster's playback queue with a single uri.
func (c *Client) PlayTrack(ctx context.Context, accessToken, uri string) error {
	return c.put(ctx, accessToken, "/me/player/play", struct {
		URIs []string `json:"uris"`
	}{URIs: []string{uri}})
}

type trackObject struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	Explicit bool   `json:"explicit"`
	Artists  []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

func (t trackObject) toTrack() *Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	return &Track{URI: t.URI, Name: t.Name, Artists: artists, Explicit: t.Explicit}
}

type playerResponse struct {
	IsPlaying bool         `json:"is_playing"`
	Item      *trackObject `json:"item"`
}

func (c *Client) get(ctx context.Context, accessToken, path string, result interface{}) error {
	found, err := c.getOptional(ctx, accessToken, path, result)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("musicprovider: unexpected empty response for %s", path)
	}
	return nil
}

// getOptional issues a GET, reporting found=false on a 204 (the
// provider's shape for "nothing to return" rather than an error).
func (c *Client) getOptional(ctx context.Context, accessToken, path string, result interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return false, nil
	}
	if resp.StatusCode >= 300 {
		return false, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, path)
	}
	return true, json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) post(ctx context.Context, accessToken, path string, body interface{}) error {
	return c.writeNoContent(ctx, http.MethodPost, accessToken, path, body)
}

func (c *Client) put(ctx context.Context, accessToken, path string, body interface{}) error {
	return c.writeNoContent(ctx, http.MethodPut, accessToken, path, body)
}

// writeNoContent issues a write request expecting a 204 (or 200, which
// the provider's own docs disagree with its API about) and surfaces the
// 403-without-premium case distinctly since it's the one a broadcaster
// can actually act on.
func (c *Client) writeNoContent(ctx context.Context, method, accessToken, path string, body interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader([]byte("null"))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusForbidden:
		return fmt.Errorf("musicprovider: controlling playback requires a premium account")
	default:
		return fmt.Errorf("musicprovider: unexpected status %d for %s", resp.StatusCode, path)
	}
}
