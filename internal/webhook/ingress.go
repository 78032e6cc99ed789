// Package webhook implements the webhook ingress described in spec.md
// §4.1 (C7): HMAC-SHA256 signature verification, a replay-window guard,
// and dispatch of verification/notification/revocation messages to the
// reward dispatcher.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Message types carried in the Message-Type header.
const (
	MessageTypeNotification = "notification"
	MessageTypeVerification = "webhook_callback_verification"
	MessageTypeRevocation   = "revocation"
)

// Header names, generalized from the provider-specific names the
// original implementation used.
const (
	HeaderMessageID           = "Message-Id"
	HeaderMessageTimestamp    = "Message-Timestamp"
	HeaderMessageSignature    = "Message-Signature"
	HeaderMessageType         = "Message-Type"
	HeaderSubscriptionType    = "Subscription-Type"
	HeaderSubscriptionVersion = "Subscription-Version"
)

// maxBodyBytes caps the request body the ingress will read, per
// spec.md §4.1: requests larger than this are rejected with 418 before
// the body is fully buffered.
const maxBodyBytes = 10 << 20 // 10MB

// defaultMaxTimestampAge is the replay-window guard: messages older than
// this are rejected even with a valid signature (spec.md §4.1).
const defaultMaxTimestampAge = 10 * time.Minute

// Message is a parsed, signature-verified webhook delivery.
type Message struct {
	MessageID           string
	MessageTimestamp    time.Time
	MessageType         string
	SubscriptionType    string
	SubscriptionVersion string
	SubscriptionID      string
	Challenge           string
	Event               json.RawMessage
}

type wirePayload struct {
	Subscription struct {
		ID string `json:"id"`
	} `json:"subscription"`
	Challenge string          `json:"challenge,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
}

// Handler verifies and dispatches incoming webhook deliveries.
type Handler struct {
	secret          string
	maxTimestampAge time.Duration
	log             zerolog.Logger

	OnNotification func(*Message)
	OnVerification func(*Message) bool
	OnRevocation   func(*Message)
}

// New builds a Handler. secret is the shared HMAC key configured for
// the subscription; it must be non-empty.
func New(secret string, log zerolog.Logger) *Handler {
	return &Handler{
		secret:          secret,
		maxTimestampAge: defaultMaxTimestampAge,
		log:             log,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "payload too large", http.StatusTeapot)
		return
	}

	if !h.verifySignature(r.Header, body) {
		h.log.Warn().Str("message_id", r.Header.Get(HeaderMessageID)).Msg("webhook: signature verification failed")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	msg, err := h.parseMessage(r.Header, body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if age := time.Since(msg.MessageTimestamp); age > h.maxTimestampAge || age < -h.maxTimestampAge {
		h.log.Warn().Str("message_id", msg.MessageID).Msg("webhook: message timestamp outside replay window")
		http.Error(w, "message timestamp outside replay window", http.StatusUnauthorized)
		return
	}

	switch msg.MessageType {
	case MessageTypeVerification:
		h.handleVerification(w, msg)
	case MessageTypeNotification:
		h.handleNotification(w, msg)
	case MessageTypeRevocation:
		h.handleRevocation(w, msg)
	default:
		http.Error(w, "unknown message type", http.StatusBadRequest)
	}
}

func (h *Handler) verifySignature(headers http.Header, body []byte) bool {
	messageID := headers.Get(HeaderMessageID)
	timestamp := headers.Get(HeaderMessageTimestamp)
	signature := headers.Get(HeaderMessageSignature)
	if messageID == "" || timestamp == "" || signature == "" {
		return false
	}

	message := append([]byte(messageID+timestamp), body...)
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(message)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func (h *Handler) parseMessage(headers http.Header, body []byte) (*Message, error) {
	timestamp, err := time.Parse(time.RFC3339, headers.Get(HeaderMessageTimestamp))
	if err != nil {
		return nil, fmt.Errorf("webhook: invalid timestamp: %w", err)
	}

	var payload wirePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("webhook: invalid payload: %w", err)
	}

	return &Message{
		MessageID:           headers.Get(HeaderMessageID),
		MessageTimestamp:    timestamp,
		MessageType:         headers.Get(HeaderMessageType),
		SubscriptionType:    headers.Get(HeaderSubscriptionType),
		SubscriptionVersion: headers.Get(HeaderSubscriptionVersion),
		SubscriptionID:      payload.Subscription.ID,
		Challenge:           payload.Challenge,
		Event:               payload.Event,
	}, nil
}

func (h *Handler) handleVerification(w http.ResponseWriter, msg *Message) {
	accept := true
	if h.OnVerification != nil {
		accept = h.OnVerification(msg)
	}
	if !accept {
		http.Error(w, "subscription rejected", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(msg.Challenge))
}

func (h *Handler) handleNotification(w http.ResponseWriter, msg *Message) {
	if h.OnNotification != nil {
		h.OnNotification(msg)
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleRevocation(w http.ResponseWriter, msg *Message) {
	if h.OnRevocation != nil {
		h.OnRevocation(msg)
	}
	w.WriteHeader(http.StatusOK)
}

// ParseEvent decodes msg.Event into T.
func ParseEvent[T any](msg *Message) (*T, error) {
	var event T
	if err := json.Unmarshal(msg.Event, &event); err != nil {
		return nil, fmt.Errorf("webhook: parsing event: %w", err)
	}
	return &event, nil
}
