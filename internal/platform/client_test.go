package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	authClient := NewAuthClient(AuthConfig{ClientID: "test-client-id", ClientSecret: "test-secret"})
	authClient.SetCurrentToken(&Token{AccessToken: "test-access-token"})

	client := NewClient("test-client-id", server.URL, authClient, WithRetry(true, 1))
	return client, server
}

func TestNewClient(t *testing.T) {
	authClient := NewAuthClient(AuthConfig{ClientID: "test-client-id"})
	client := NewClient("test-client-id", "https://example.invalid", authClient)

	if client == nil {
		t.Fatal("expected client to not be nil")
	}
	if client.clientID != "test-client-id" {
		t.Errorf("expected clientID test-client-id, got %s", client.clientID)
	}
}

func TestClient_Do_SetsAuthHeaders(t *testing.T) {
	var gotClientID, gotAuth string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotClientID = r.Header.Get("Client-Id")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Response[User]{Data: []User{{ID: "1"}}})
	})
	defer server.Close()

	var resp Response[User]
	err := client.Do(context.Background(), &Request{Method: http.MethodGet, Endpoint: "/users"}, &resp)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotClientID != "test-client-id" {
		t.Errorf("expected Client-Id header, got %q", gotClientID)
	}
	if gotAuth != "Bearer test-access-token" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != "1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestClient_Do_NonOKStatusReturnsAPIError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad request"))
	})
	defer server.Close()

	err := client.Do(context.Background(), &Request{Method: http.MethodGet, Endpoint: "/users"}, nil)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", apiErr.StatusCode)
	}
}

func TestClient_Do_RetriesOnRateLimitThenGivesUp(t *testing.T) {
	calls := 0
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Ratelimit-Remaining", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	defer server.Close()

	err := client.Do(context.Background(), &Request{Method: http.MethodGet, Endpoint: "/users"}, nil)
	if !IsRateLimitError(err) {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts (maxRetries=1), got %d", calls)
	}
}
