// Package bttv adapts the BetterTTV public API to the emote.Adapter
// capability interface.
package bttv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nerix-tools/redemptiond/internal/emote"
)

const defaultBaseURL = "https://api.betterttv.net/3"

// Adapter implements emote.Adapter against the BetterTTV REST API.
type Adapter struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

// New builds a BTTV Adapter. authToken is the channel editor's BTTV
// account token, required for Add/Remove.
func New(authToken string) *Adapter {
	return &Adapter{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		authToken:  authToken,
	}
}

func (a *Adapter) Name() string { return "bttv" }

// defaultCapacity is BTTV's baseline channel emote slot count; channels
// with boosted slots report a higher figure via the channel response,
// which GetCapacity prefers when present.
const defaultCapacity = 10

type bttvEmote struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

type bttvChannelResponse struct {
	SharedEmotes  []bttvEmote `json:"sharedEmotes"`
	ChannelEmotes []bttvEmote `json:"channelEmotes"`
	MaxEmoteSlots int         `json:"maxEmoteSlots,omitempty"`
}

func (a *Adapter) GetCapacity(ctx context.Context, channelPlatformID string) (int, int, error) {
	var resp bttvChannelResponse
	if err := a.doJSON(ctx, http.MethodGet, fmt.Sprintf("/cached/users/twitch/%s", channelPlatformID), nil, &resp); err != nil {
		return 0, 0, err
	}
	capacity := resp.MaxEmoteSlots
	if capacity == 0 {
		capacity = defaultCapacity
	}
	return capacity, len(resp.ChannelEmotes), nil
}

func (a *Adapter) GetEmotes(ctx context.Context, channelPlatformID string) ([]emote.Emote, error) {
	var resp bttvChannelResponse
	if err := a.doJSON(ctx, http.MethodGet, fmt.Sprintf("/cached/users/twitch/%s", channelPlatformID), nil, &resp); err != nil {
		return nil, err
	}

	emotes := make([]emote.Emote, 0, len(resp.ChannelEmotes)+len(resp.SharedEmotes))
	for _, e := range resp.ChannelEmotes {
		emotes = append(emotes, emote.Emote{ID: e.ID, Name: e.Code})
	}
	for _, e := range resp.SharedEmotes {
		emotes = append(emotes, emote.Emote{ID: e.ID, Name: e.Code})
	}
	return emotes, nil
}

func (a *Adapter) FindEmote(ctx context.Context, query string) (*emote.Emote, error) {
	var results []bttvEmote
	if err := a.doJSON(ctx, http.MethodGet, "/emotes/shared/search?query="+query+"&limit=1", nil, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, &emote.ErrNotFound{Query: query}
	}
	return &emote.Emote{ID: results[0].ID, Name: results[0].Code}, nil
}

func (a *Adapter) Add(ctx context.Context, channelPlatformID, emoteID string) (*emote.Emote, error) {
	endpoint := fmt.Sprintf("/emotes/%s/shared/start/%s", emoteID, channelPlatformID)
	var result bttvEmote
	if err := a.doJSON(ctx, http.MethodPut, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return &emote.Emote{ID: result.ID, Name: result.Code}, nil
}

func (a *Adapter) Remove(ctx context.Context, channelPlatformID, emoteID string) error {
	endpoint := fmt.Sprintf("/emotes/%s/shared/start/%s", emoteID, channelPlatformID)
	return a.doJSON(ctx, http.MethodDelete, endpoint, nil, nil)
}

func (a *Adapter) FormatEmoteURL(emoteID string) string {
	return fmt.Sprintf("https://betterttv.com/emotes/%s", emoteID)
}

func (a *Adapter) doJSON(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("bttv: marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("bttv: building request: %w", err)
	}
	if a.authToken != "" {
		req.Header.Set("Authorization", a.authToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bttv: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &emote.ErrNotFound{Query: path}
	}
	if resp.StatusCode == http.StatusConflict {
		return &emote.ErrAlreadyAdded{EmoteID: path}
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("bttv: unexpected status %d for %s", resp.StatusCode, path)
	}
	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
