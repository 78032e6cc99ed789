package irc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Mock WebSocket server for testing

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func createMockIRCServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("Failed to upgrade: %v", err)
			return
		}
		defer func() { _ = conn.Close() }()
		handler(conn)
	}))
}

func TestNewClient(t *testing.T) {
	client := NewClient("testuser", "token123")

	if client.nick != "testuser" {
		t.Errorf("nick: got %q, want %q", client.nick, "testuser")
	}

	if client.token != "oauth:token123" {
		t.Errorf("token: got %q, want %q", client.token, "oauth:token123")
	}

	if client.url != TwitchWebSocket {
		t.Errorf("url: got %q, want %q", client.url, TwitchWebSocket)
	}

	// Test with oauth: prefix already present
	client2 := NewClient("testuser", "oauth:token456")
	if client2.token != "oauth:token456" {
		t.Errorf("token with prefix: got %q, want %q", client2.token, "oauth:token456")
	}
}

func TestClientOptions(t *testing.T) {
	messageReceived := false
	errorReceived := false

	client := NewClient("testuser", "token",
		WithURL("wss://custom.url"),
		WithAutoReconnect(false),
		WithReconnectDelay(10*time.Second),
		WithMessageHandler(func(m *ChatMessage) {
			messageReceived = true
		}),
		WithErrorHandler(func(err error) {
			errorReceived = true
		}),
	)

	if client.url != "wss://custom.url" {
		t.Errorf("url: got %q, want %q", client.url, "wss://custom.url")
	}

	if client.autoReconnect {
		t.Error("autoReconnect should be false")
	}

	if client.reconnectDelay != 10*time.Second {
		t.Errorf("reconnectDelay: got %v, want %v", client.reconnectDelay, 10*time.Second)
	}

	if client.onMessage == nil {
		t.Error("onMessage handler should be set")
	}

	if client.onError == nil {
		t.Error("onError handler should be set")
	}

	client.onMessage(&ChatMessage{})
	if !messageReceived {
		t.Error("message handler was not called")
	}

	client.onError(nil)
	if !errorReceived {
		t.Error("error handler was not called")
	}
}

func TestChannelManagement(t *testing.T) {
	client := NewClient("testuser", "token")

	// Join channels while disconnected (should be queued)
	err := client.Join("channel1", "#channel2", "CHANNEL3")
	if err != nil {
		t.Errorf("Join error: %v", err)
	}

	channels := client.GetJoinedChannels()
	if len(channels) != 3 {
		t.Errorf("Expected 3 channels, got %d", len(channels))
	}

	// Verify channel names are normalized
	channelMap := make(map[string]bool)
	for _, ch := range channels {
		channelMap[ch] = true
	}

	if !channelMap["channel1"] {
		t.Error("channel1 should be in joined channels")
	}
	if !channelMap["channel2"] {
		t.Error("channel2 should be in joined channels")
	}
	if !channelMap["CHANNEL3"] && !channelMap["channel3"] {
		t.Error("channel3 should be in joined channels")
	}

	// Part a channel
	err = client.Part("channel1")
	if err != nil {
		t.Errorf("Part error: %v", err)
	}

	channels = client.GetJoinedChannels()
	if len(channels) != 2 {
		t.Errorf("Expected 2 channels after part, got %d", len(channels))
	}
}

func TestAllClientOptions(t *testing.T) {
	var (
		connectCalled    bool
		disconnectCalled bool
	)

	client := NewClient("testuser", "token",
		WithConnectHandler(func() { connectCalled = true }),
		WithDisconnectHandler(func() { disconnectCalled = true }),
	)

	client.onConnect()
	client.onDisconnect()

	if !connectCalled {
		t.Error("connect handler not called")
	}
	if !disconnectCalled {
		t.Error("disconnect handler not called")
	}
}

func TestClientClose(t *testing.T) {
	client := NewClient("testuser", "token")

	// Close on unconnected client should not error
	err := client.Close()
	if err != nil {
		t.Errorf("Close on unconnected client: %v", err)
	}
}

func TestClientSendNotConnected(t *testing.T) {
	client := NewClient("testuser", "token")

	err := client.Say("channel", "message")
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Say should return ErrNotConnected, got: %v", err)
	}

	err = client.Reply("channel", "msgid", "message")
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Reply should return ErrNotConnected, got: %v", err)
	}

	err = client.Whisper("user", "message")
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Whisper should return ErrNotConnected, got: %v", err)
	}
}

func TestClientConnect(t *testing.T) {
	server := createMockIRCServer(t, func(conn *websocket.Conn) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg := string(data)

			if strings.HasPrefix(msg, "CAP REQ") {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(":tmi.twitch.tv CAP * ACK :twitch.tv/tags twitch.tv/commands\r\n"))
			} else if strings.HasPrefix(msg, "PASS") {
				// Continue
			} else if strings.HasPrefix(msg, "NICK") {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(":tmi.twitch.tv 001 testuser :Welcome, GLHF!\r\n"))
				return
			}
		}
	})
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client := NewClient("testuser", "token", WithURL(wsURL), WithAutoReconnect(false))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if !client.IsConnected() {
		t.Error("Client should be connected")
	}

	// Test double connect
	err = client.Connect(ctx)
	if !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("Second Connect should return ErrAlreadyConnected, got: %v", err)
	}

	_ = client.Close()
}

func TestClientAuthFailed(t *testing.T) {
	server := createMockIRCServer(t, func(conn *websocket.Conn) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg := string(data)

			if strings.HasPrefix(msg, "CAP REQ") {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(":tmi.twitch.tv CAP * ACK :twitch.tv/tags\r\n"))
			} else if strings.HasPrefix(msg, "NICK") {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(":tmi.twitch.tv NOTICE * :Login authentication failed\r\n"))
				return
			}
		}
	})
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client := NewClient("testuser", "badtoken", WithURL(wsURL), WithAutoReconnect(false))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Connect(ctx)
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("Connect should return ErrAuthFailed, got: %v", err)
	}
}

func TestClientHandleMessage(t *testing.T) {
	var msgReceived bool

	client := NewClient("testuser", "token",
		WithMessageHandler(func(m *ChatMessage) { msgReceived = true }),
	)

	// PING should not panic and does not require a live connection since
	// send() only touches the conn when one is set; an unconnected send
	// returns ErrNotConnected, which handleMessage ignores.
	client.handleMessage("PING :tmi.twitch.tv")

	client.handleMessage("@id=123 :user!user@user.tmi.twitch.tv PRIVMSG #channel :Hello")
	if !msgReceived {
		t.Error("PRIVMSG should trigger message handler")
	}
}
