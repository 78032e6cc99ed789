// Package seventv adapts the SevenTV GraphQL API to the emote.Adapter
// capability interface. Reads are unauthenticated; mutations require a
// bearer token for the channel editor's SevenTV account.
package seventv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerix-tools/redemptiond/internal/emote"
	"github.com/nerix-tools/redemptiond/internal/gqlbase"
)

const defaultEndpoint = "https://7tv.io/v3/gql"

// Adapter implements emote.Adapter against the SevenTV GraphQL API.
//
// SevenTV's emote set capacity is tracked per-user rather than per-set:
// Add fails with a capacity error from the API itself when the set
// owner's slot allowance is exhausted, and this adapter surfaces that as
// a plain error; like bttv/ffz, Add does not pre-check a slot count.
type Adapter struct {
	client *gqlbase.Client
}

// New builds a SevenTV Adapter. authToken is the channel editor's
// SevenTV bearer token, required for Add/Remove.
func New(authToken string) *Adapter {
	opts := []gqlbase.Option{}
	if authToken != "" {
		opts = append(opts, gqlbase.WithHeader("Authorization", "Bearer "+authToken))
	}
	return &Adapter{client: gqlbase.NewClient(defaultEndpoint, opts...)}
}

func (a *Adapter) Name() string { return "seventv" }

const queryEmoteSetCapacity = `
query GetEmoteSetCapacity($id: ObjectID!) {
	emoteSet(id: $id) {
		capacity
		emotes {
			id
		}
	}
}`

// GetCapacity returns the emote set's capacity and current size.
// SevenTV's capacity is a property of the set owner's account tier, not
// of the channel itself, so a channel sharing its set with another user
// can observe the capacity change out from under it between calls.
func (a *Adapter) GetCapacity(ctx context.Context, emoteSetID string) (int, int, error) {
	resp, err := a.client.Execute(ctx, gqlbase.Request{
		Query:     queryEmoteSetCapacity,
		Variables: map[string]interface{}{"id": emoteSetID},
	})
	if err != nil {
		return 0, 0, fmt.Errorf("seventv: get capacity: %w", err)
	}

	var parsed struct {
		EmoteSet struct {
			Capacity int `json:"capacity"`
			Emotes   []struct {
				ID string `json:"id"`
			} `json:"emotes"`
		} `json:"emoteSet"`
	}
	if err := json.Unmarshal(resp.Data, &parsed); err != nil {
		return 0, 0, fmt.Errorf("seventv: decoding capacity: %w", err)
	}
	return parsed.EmoteSet.Capacity, len(parsed.EmoteSet.Emotes), nil
}

const queryEmoteSet = `
query GetEmoteSet($id: ObjectID!) {
	emoteSet(id: $id) {
		emotes {
			id
			name
		}
	}
}`

func (a *Adapter) GetEmotes(ctx context.Context, emoteSetID string) ([]emote.Emote, error) {
	resp, err := a.client.Execute(ctx, gqlbase.Request{
		Query:     queryEmoteSet,
		Variables: map[string]interface{}{"id": emoteSetID},
	})
	if err != nil {
		return nil, fmt.Errorf("seventv: get emotes: %w", err)
	}

	var parsed struct {
		EmoteSet struct {
			Emotes []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"emotes"`
		} `json:"emoteSet"`
	}
	if err := json.Unmarshal(resp.Data, &parsed); err != nil {
		return nil, fmt.Errorf("seventv: decoding emote set: %w", err)
	}

	emotes := make([]emote.Emote, 0, len(parsed.EmoteSet.Emotes))
	for _, e := range parsed.EmoteSet.Emotes {
		emotes = append(emotes, emote.Emote{ID: e.ID, Name: e.Name})
	}
	return emotes, nil
}

const querySearchEmotes = `
query SearchEmotes($query: String!) {
	emotes(query: $query, limit: 1) {
		items {
			id
			name
		}
	}
}`

func (a *Adapter) FindEmote(ctx context.Context, query string) (*emote.Emote, error) {
	resp, err := a.client.Execute(ctx, gqlbase.Request{
		Query:     querySearchEmotes,
		Variables: map[string]interface{}{"query": query},
	})
	if err != nil {
		return nil, fmt.Errorf("seventv: find emote: %w", err)
	}

	var parsed struct {
		Emotes struct {
			Items []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"items"`
		} `json:"emotes"`
	}
	if err := json.Unmarshal(resp.Data, &parsed); err != nil {
		return nil, fmt.Errorf("seventv: decoding search results: %w", err)
	}
	if len(parsed.Emotes.Items) == 0 {
		return nil, &emote.ErrNotFound{Query: query}
	}
	item := parsed.Emotes.Items[0]
	return &emote.Emote{ID: item.ID, Name: item.Name}, nil
}

const mutationAddEmote = `
mutation AddEmote($setId: ObjectID!, $emoteId: ObjectID!) {
	emoteSet(id: $setId) {
		addEmote(id: $emoteId) {
			id
		}
	}
}`

func (a *Adapter) Add(ctx context.Context, emoteSetID, emoteID string) (*emote.Emote, error) {
	_, err := a.client.Execute(ctx, gqlbase.Request{
		Query: mutationAddEmote,
		Variables: map[string]interface{}{
			"setId":   emoteSetID,
			"emoteId": emoteID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("seventv: add emote: %w", err)
	}
	return &emote.Emote{ID: emoteID}, nil
}

const mutationRemoveEmote = `
mutation RemoveEmote($setId: ObjectID!, $emoteId: ObjectID!) {
	emoteSet(id: $setId) {
		removeEmote(id: $emoteId) {
			id
		}
	}
}`

func (a *Adapter) Remove(ctx context.Context, emoteSetID, emoteID string) error {
	_, err := a.client.Execute(ctx, gqlbase.Request{
		Query: mutationRemoveEmote,
		Variables: map[string]interface{}{
			"setId":   emoteSetID,
			"emoteId": emoteID,
		},
	})
	if err != nil {
		return fmt.Errorf("seventv: remove emote: %w", err)
	}
	return nil
}

func (a *Adapter) FormatEmoteURL(emoteID string) string {
	return fmt.Sprintf("https://7tv.app/emotes/%s", emoteID)
}
