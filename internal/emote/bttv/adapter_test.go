package bttv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestAdapter(handler http.HandlerFunc) (*Adapter, *httptest.Server) {
	server := httptest.NewServer(handler)
	a := New("test-token")
	a.baseURL = server.URL
	return a, server
}

func TestAdapter_GetEmotes(t *testing.T) {
	a, server := newTestAdapter(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"channelEmotes":[{"id":"1","code":"PogU"}],"sharedEmotes":[{"id":"2","code":"FeelsGoodMan"}]}`))
	})
	defer server.Close()

	emotes, err := a.GetEmotes(context.Background(), "12345")
	if err != nil {
		t.Fatalf("GetEmotes: %v", err)
	}
	if len(emotes) != 2 {
		t.Fatalf("expected 2 emotes, got %d", len(emotes))
	}
}

func TestAdapter_FindEmote_NotFound(t *testing.T) {
	a, server := newTestAdapter(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})
	defer server.Close()

	_, err := a.FindEmote(context.Background(), "doesnotexist")
	if err == nil {
		t.Fatal("expected ErrNotFound")
	}
}

func TestAdapter_Add(t *testing.T) {
	var gotAuth string
	a, server := newTestAdapter(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"3","code":"NewEmote"}`))
	})
	defer server.Close()

	e, err := a.Add(context.Background(), "12345", "3")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if e.ID != "3" {
		t.Errorf("expected id 3, got %s", e.ID)
	}
	if gotAuth != "test-token" {
		t.Errorf("expected auth token forwarded, got %q", gotAuth)
	}
}
