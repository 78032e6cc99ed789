package musicprovider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &Client{baseURL: server.URL, httpClient: server.Client()}, server
}

func TestClient_GetTrack(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tracks/abc123" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"name":"Song","uri":"spotify:track:abc123","explicit":false,"artists":[{"name":"Artist"}]}`))
	})

	track, err := c.GetTrack(context.Background(), "tok", "abc123")
	if err != nil {
		t.Fatalf("GetTrack: %v", err)
	}
	if track.Name != "Song" || len(track.Artists) != 1 || track.Artists[0] != "Artist" {
		t.Fatalf("unexpected track: %+v", track)
	}
}

func TestClient_GetPlayer_NoContent(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	player, err := c.GetPlayer(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if player.IsPlaying {
		t.Fatal("expected IsPlaying false on 204")
	}
}

func TestClient_SkipNext_ForbiddenWithoutPremium(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := c.SkipNext(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected an error on 403")
	}
}
