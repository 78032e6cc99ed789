package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func sign(secret, messageID, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(messageID + timestamp))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestHandler_Notification_ValidSignature(t *testing.T) {
	secret := "test-secret"
	h := New(secret, zerolog.Nop())

	var got *Message
	h.OnNotification = func(m *Message) { got = m }

	body := []byte(`{"subscription":{"id":"sub1"},"event":{"id":"r1"}}`)
	messageID := "msg1"
	timestamp := time.Now().UTC().Format(time.RFC3339)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
	req.Header.Set(HeaderMessageID, messageID)
	req.Header.Set(HeaderMessageTimestamp, timestamp)
	req.Header.Set(HeaderMessageSignature, sign(secret, messageID, timestamp, body))
	req.Header.Set(HeaderMessageType, MessageTypeNotification)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got == nil || got.SubscriptionID != "sub1" {
		t.Fatalf("expected notification callback with subscription id sub1, got %+v", got)
	}
}

func TestHandler_InvalidSignatureRejected(t *testing.T) {
	h := New("test-secret", zerolog.Nop())

	body := []byte(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
	req.Header.Set(HeaderMessageID, "msg1")
	req.Header.Set(HeaderMessageTimestamp, time.Now().UTC().Format(time.RFC3339))
	req.Header.Set(HeaderMessageSignature, "sha256=deadbeef")
	req.Header.Set(HeaderMessageType, MessageTypeNotification)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandler_StaleTimestampRejected(t *testing.T) {
	secret := "test-secret"
	h := New(secret, zerolog.Nop())

	body := []byte(`{}`)
	messageID := "msg1"
	timestamp := time.Now().Add(-1 * time.Hour).UTC().Format(time.RFC3339)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
	req.Header.Set(HeaderMessageID, messageID)
	req.Header.Set(HeaderMessageTimestamp, timestamp)
	req.Header.Set(HeaderMessageSignature, sign(secret, messageID, timestamp, body))
	req.Header.Set(HeaderMessageType, MessageTypeNotification)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for stale timestamp, got %d", rec.Code)
	}
}

func TestHandler_FutureTimestampRejected(t *testing.T) {
	secret := "test-secret"
	h := New(secret, zerolog.Nop())

	body := []byte(`{}`)
	messageID := "msg1"
	timestamp := time.Now().Add(1 * time.Hour).UTC().Format(time.RFC3339)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
	req.Header.Set(HeaderMessageID, messageID)
	req.Header.Set(HeaderMessageTimestamp, timestamp)
	req.Header.Set(HeaderMessageSignature, sign(secret, messageID, timestamp, body))
	req.Header.Set(HeaderMessageType, MessageTypeNotification)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for future timestamp, got %d", rec.Code)
	}
}

func TestHandler_VerificationEchoesChallenge(t *testing.T) {
	secret := "test-secret"
	h := New(secret, zerolog.Nop())

	body := []byte(`{"subscription":{"id":"sub1"},"challenge":"abc123"}`)
	messageID := "msg1"
	timestamp := time.Now().UTC().Format(time.RFC3339)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
	req.Header.Set(HeaderMessageID, messageID)
	req.Header.Set(HeaderMessageTimestamp, timestamp)
	req.Header.Set(HeaderMessageSignature, sign(secret, messageID, timestamp, body))
	req.Header.Set(HeaderMessageType, MessageTypeVerification)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "abc123" {
		t.Fatalf("expected challenge echoed back, got %q", rec.Body.String())
	}
}
