package tokenrefresh

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nerix-tools/redemptiond/internal/credstore"
	"github.com/nerix-tools/redemptiond/internal/platform"
	"github.com/nerix-tools/redemptiond/internal/store"
)

type fakeCredStore struct {
	creds  []credstore.Credential
	saved  []credstore.Credential
	broken []string
}

func (f *fakeCredStore) Get(kind store.CredentialKind, subjectID string) (*credstore.Credential, error) {
	return nil, credstore.ErrNotFound
}
func (f *fakeCredStore) Save(c credstore.Credential) error {
	f.saved = append(f.saved, c)
	return nil
}
func (f *fakeCredStore) List(kind store.CredentialKind) ([]credstore.Credential, error) {
	var out []credstore.Credential
	for _, c := range f.creds {
		if c.SubjectKind == kind {
			out = append(out, c)
		}
	}
	return out, nil
}
func (f *fakeCredStore) MarkBroken(kind store.CredentialKind, subjectID string) error {
	f.broken = append(f.broken, subjectID)
	return nil
}

func TestTick_RefreshesTokenNearExpiry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-token","refresh_token":"new-refresh","token_type":"bearer","expires_in":3600}`))
	}))
	defer server.Close()

	authClient := platform.NewAuthClient(platform.AuthConfig{ClientID: "id", ClientSecret: "secret", TokenURL: server.URL})

	cs := &fakeCredStore{
		creds: []credstore.Credential{
			{SubjectKind: store.CredentialStreamer, SubjectID: "chan1", RefreshToken: "old-refresh", ExpiresAt: time.Now().Add(5 * time.Minute)},
		},
	}

	r := New(cs, map[store.CredentialKind]*platform.AuthClient{store.CredentialStreamer: authClient}, nil, zerolog.Nop())
	if err := r.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if len(cs.saved) != 1 || cs.saved[0].AccessToken != "new-token" {
		t.Fatalf("expected a refreshed credential to be saved, got %+v", cs.saved)
	}
}

func TestTick_SkipsTokenFarFromExpiry(t *testing.T) {
	authClient := platform.NewAuthClient(platform.AuthConfig{ClientID: "id", ClientSecret: "secret", TokenURL: "http://unused"})

	cs := &fakeCredStore{
		creds: []credstore.Credential{
			{SubjectKind: store.CredentialMusic, SubjectID: "chan1", ExpiresAt: time.Now().Add(time.Hour)},
		},
	}

	r := New(cs, map[store.CredentialKind]*platform.AuthClient{store.CredentialMusic: authClient}, nil, zerolog.Nop())
	if err := r.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(cs.saved) != 0 {
		t.Fatalf("expected no refresh for a token far from expiry, got %+v", cs.saved)
	}
}

func TestTick_MarksBrokenOnRefreshFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	authClient := platform.NewAuthClient(platform.AuthConfig{ClientID: "id", ClientSecret: "secret", TokenURL: server.URL})

	cs := &fakeCredStore{
		creds: []credstore.Credential{
			{SubjectKind: store.CredentialStreamer, SubjectID: "chan1", RefreshToken: "bad", ExpiresAt: time.Now()},
		},
	}

	r := New(cs, map[store.CredentialKind]*platform.AuthClient{store.CredentialStreamer: authClient}, nil, zerolog.Nop())
	if err := r.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(cs.broken) != 1 || cs.broken[0] != "chan1" {
		t.Fatalf("expected credential to be marked broken, got %+v", cs.broken)
	}
}
