package seventv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nerix-tools/redemptiond/internal/gqlbase"
)

func newTestAdapter(handler http.HandlerFunc) (*Adapter, *httptest.Server) {
	server := httptest.NewServer(handler)
	return &Adapter{client: gqlbase.NewClient(server.URL, gqlbase.WithRetry(0, 0))}, server
}

func TestAdapter_GetEmotes(t *testing.T) {
	a, server := newTestAdapter(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"emoteSet":{"emotes":[{"id":"1","name":"Pog"}]}}}`))
	})
	defer server.Close()

	emotes, err := a.GetEmotes(context.Background(), "set1")
	if err != nil {
		t.Fatalf("GetEmotes: %v", err)
	}
	if len(emotes) != 1 || emotes[0].Name != "Pog" {
		t.Fatalf("unexpected emotes: %+v", emotes)
	}
}

func TestAdapter_Add_PropagatesCapacityError(t *testing.T) {
	a, server := newTestAdapter(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"emote set capacity reached"}]}`))
	})
	defer server.Close()

	_, err := a.Add(context.Background(), "set1", "2")
	if err == nil {
		t.Fatal("expected a capacity error")
	}
}

func TestAdapter_FindEmote_NotFound(t *testing.T) {
	a, server := newTestAdapter(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"emotes":{"items":[]}}}`))
	})
	defer server.Close()

	_, err := a.FindEmote(context.Background(), "doesnotexist")
	if err == nil {
		t.Fatal("expected ErrNotFound")
	}
}
