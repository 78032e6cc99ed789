package ffz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) []byte { return f.data[key] }
func (f *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	f.data[key] = value
}
func (f *fakeCache) Delete(ctx context.Context, key string) { delete(f.data, key) }

func newTestAdapter(handler http.HandlerFunc, cache membershipCache) (*Adapter, *httptest.Server) {
	server := httptest.NewServer(handler)
	a := New("test-token", cache)
	a.baseURL = server.URL
	return a, server
}

func TestAdapter_Add_RecordsJustAdded(t *testing.T) {
	cache := newFakeCache()
	a, server := newTestAdapter(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, cache)
	defer server.Close()

	if _, err := a.Add(context.Background(), "1234", "99"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if cache.Get(context.Background(), justAddedKey("1234", "99")) == nil {
		t.Fatal("expected just-added key to be cached")
	}
}

func TestAdapter_Remove_NotFoundWhenNotJustAdded(t *testing.T) {
	cache := newFakeCache()
	deleted := false
	a, server := newTestAdapter(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deleted = true
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Write([]byte(`{"room":{"set":5},"sets":{"5":{"emoticons":[{"id":1,"name":"a"}]}}}`))
	}, cache)
	defer server.Close()

	err := a.Remove(context.Background(), "1234", "99")
	if err == nil {
		t.Fatal("expected ErrNotFound for an emote neither recorded as added nor in the room's set")
	}
	if deleted {
		t.Fatal("expected no DELETE for an emote absent from the room's set")
	}
}

func TestAdapter_Remove_SucceedsWhenJustAdded(t *testing.T) {
	cache := newFakeCache()
	cache.Set(context.Background(), justAddedKey("1234", "99"), []byte("1"), time.Minute)
	a, server := newTestAdapter(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, cache)
	defer server.Close()

	if err := a.Remove(context.Background(), "1234", "99"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if cache.Get(context.Background(), justAddedKey("1234", "99")) != nil {
		t.Fatal("expected just-added key to be cleared after removal")
	}
}
