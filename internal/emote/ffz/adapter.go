// Package ffz adapts the FrankerFaceZ public API to the emote.Adapter
// capability interface.
package ffz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nerix-tools/redemptiond/internal/emote"
)

const defaultBaseURL = "https://api.frankerfacez.com/v1"

// justAddedTTL is how long an Add is remembered; within that window
// Remove treats the emote as a member of the set without fetching the
// room's current set first.
const justAddedTTL = 90 * time.Second

// membershipCache is the subset of internal/cache.Cache the adapter
// needs to track recently-added emotes.
type membershipCache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Get(ctx context.Context, key string) []byte
	Delete(ctx context.Context, key string)
}

// Adapter implements emote.Adapter against the FrankerFaceZ REST API.
type Adapter struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
	cache      membershipCache
}

// New builds an FFZ Adapter. authToken is the channel editor's FFZ
// session token, required for Add/Remove. cache tracks just-added
// emotes so Remove can detect FFZ's no-op-success quirk.
func New(authToken string, cache membershipCache) *Adapter {
	return &Adapter{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		authToken:  authToken,
		cache:      cache,
	}
}

func (a *Adapter) Name() string { return "ffz" }

type ffzEmote struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ffzRoomResponse struct {
	Room struct {
		Set          int `json:"set"`
		MaxEmoticons int `json:"max_emoticons"`
	} `json:"room"`
	Sets map[string]struct {
		Emoticons []ffzEmote `json:"emoticons"`
	} `json:"sets"`
}

// defaultCapacity is FFZ's baseline per-room emote slot count.
const defaultCapacity = 50

func (a *Adapter) GetCapacity(ctx context.Context, channelPlatformID string) (int, int, error) {
	var resp ffzRoomResponse
	if err := a.doJSON(ctx, http.MethodGet, "/room/id/"+channelPlatformID, nil, &resp); err != nil {
		return 0, 0, err
	}
	capacity := resp.Room.MaxEmoticons
	if capacity == 0 {
		capacity = defaultCapacity
	}
	current := 0
	if set, ok := resp.Sets[fmt.Sprintf("%d", resp.Room.Set)]; ok {
		current = len(set.Emoticons)
	}
	return capacity, current, nil
}

func (a *Adapter) GetEmotes(ctx context.Context, channelPlatformID string) ([]emote.Emote, error) {
	var resp ffzRoomResponse
	if err := a.doJSON(ctx, http.MethodGet, "/room/id/"+channelPlatformID, nil, &resp); err != nil {
		return nil, err
	}

	set, ok := resp.Sets[fmt.Sprintf("%d", resp.Room.Set)]
	if !ok {
		return nil, nil
	}

	emotes := make([]emote.Emote, 0, len(set.Emoticons))
	for _, e := range set.Emoticons {
		emotes = append(emotes, emote.Emote{ID: fmt.Sprintf("%d", e.ID), Name: e.Name})
	}
	return emotes, nil
}

func (a *Adapter) FindEmote(ctx context.Context, query string) (*emote.Emote, error) {
	var resp struct {
		Emotes []ffzEmote `json:"emoticons"`
	}
	if err := a.doJSON(ctx, http.MethodGet, "/emotes?name="+query+"&sort=count-desc", nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Emotes) == 0 {
		return nil, &emote.ErrNotFound{Query: query}
	}
	e := resp.Emotes[0]
	return &emote.Emote{ID: fmt.Sprintf("%d", e.ID), Name: e.Name}, nil
}

func (a *Adapter) Add(ctx context.Context, channelPlatformID, emoteID string) (*emote.Emote, error) {
	endpoint := fmt.Sprintf("/room/id/%s/%s", channelPlatformID, emoteID)
	if err := a.doJSON(ctx, http.MethodPut, endpoint, nil, nil); err != nil {
		return nil, err
	}
	if a.cache != nil {
		a.cache.Set(ctx, justAddedKey(channelPlatformID, emoteID), []byte("1"), justAddedTTL)
	}
	return &emote.Emote{ID: emoteID}, nil
}

// Remove deletes an emote from the channel's set. FFZ's delete endpoint
// returns success even when the emote was never a member of the set, so
// Remove checks membership first: a just-added cache entry counts as
// membership, otherwise the room's current set is fetched and
// ErrNotFound is returned when emoteID is not in it.
func (a *Adapter) Remove(ctx context.Context, channelPlatformID, emoteID string) error {
	key := justAddedKey(channelPlatformID, emoteID)
	if a.cache == nil || a.cache.Get(ctx, key) == nil {
		current, err := a.GetEmotes(ctx, channelPlatformID)
		if err != nil {
			return err
		}
		found := false
		for _, e := range current {
			if e.ID == emoteID {
				found = true
				break
			}
		}
		if !found {
			return &emote.ErrNotFound{Query: emoteID}
		}
	}

	endpoint := fmt.Sprintf("/room/id/%s/%s", channelPlatformID, emoteID)
	if err := a.doJSON(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return err
	}
	if a.cache != nil {
		a.cache.Delete(ctx, key)
	}
	return nil
}

func (a *Adapter) FormatEmoteURL(emoteID string) string {
	return fmt.Sprintf("https://www.frankerfacez.com/emoticon/%s", emoteID)
}

func justAddedKey(channelPlatformID, emoteID string) string {
	return fmt.Sprintf("ffz-added:%s:%s", channelPlatformID, emoteID)
}

func (a *Adapter) doJSON(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ffz: marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("ffz: building request: %w", err)
	}
	if a.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.authToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ffz: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &emote.ErrNotFound{Query: path}
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("ffz: unexpected status %d for %s", resp.StatusCode, path)
	}
	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
