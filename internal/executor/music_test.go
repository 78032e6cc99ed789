package executor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/nerix-tools/redemptiond/internal/credstore"
	"github.com/nerix-tools/redemptiond/internal/musicprovider"
	"github.com/nerix-tools/redemptiond/internal/store"
)

type fakeCredStore struct {
	cred *credstore.Credential
}

func (f *fakeCredStore) Get(kind store.CredentialKind, subjectID string) (*credstore.Credential, error) {
	if f.cred == nil {
		return nil, credstore.ErrNotFound
	}
	return f.cred, nil
}
func (f *fakeCredStore) Save(c credstore.Credential) error { return nil }
func (f *fakeCredStore) List(kind store.CredentialKind) ([]credstore.Credential, error) {
	return nil, nil
}
func (f *fakeCredStore) MarkBroken(kind store.CredentialKind, subjectID string) error { return nil }

func newMusicTestDeps(t *testing.T, handler http.HandlerFunc) Deps {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	mockDB, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	db := &store.DB{DB: sqlx.NewDb(mockDB, "postgres")}

	return Deps{
		DB:            db,
		MusicProvider: musicprovider.New(musicprovider.WithBaseURL(server.URL), musicprovider.WithHTTPClient(server.Client())),
		Credentials:   &fakeCredStore{cred: &credstore.Credential{AccessToken: "tok"}},
		Log:           zerolog.Nop(),
	}
}

func TestExecuteMusicSkip_RejectsWhenNothingPlaying(t *testing.T) {
	deps := newMusicTestDeps(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	out, err := ExecuteMusicSkip(context.Background(), Redemption{ChannelID: "chan1"}, deps)
	if err != nil {
		t.Fatalf("ExecuteMusicSkip: %v", err)
	}
	if out.Success {
		t.Fatal("expected failure when nothing is playing")
	}
}

func TestExecuteMusicQueue_QueuesResolvedTrack(t *testing.T) {
	deps := newMusicTestDeps(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/me/player/currently-playing":
			w.Write([]byte(`{"is_playing":true,"item":{"name":"Now","uri":"u","artists":[]}}`))
		case regexp.MustCompile(`^/tracks/`).MatchString(r.URL.Path):
			w.Write([]byte(`{"name":"Song","uri":"spotify:track:abc1234567890123456789","explicit":false,"artists":[{"name":"Artist"}]}`))
		case r.URL.Path == "/me/player/queue":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	r := Redemption{ChannelID: "chan1", UserInput: "abc1234567890123456789012"}
	out, err := ExecuteMusicQueue(context.Background(), r, store.MusicQueueConfig{AllowExplicit: false}, deps)
	if err != nil {
		t.Fatalf("ExecuteMusicQueue: %v", err)
	}
	if !out.Success {
		t.Fatalf("expected success, got reason %q", out.Reason)
	}
}
