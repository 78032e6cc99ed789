package irc

import (
	"testing"
)

func TestNewBot(t *testing.T) {
	bot := NewBot("testbot", "token123")

	if bot.nick != "testbot" {
		t.Errorf("nick: got %q, want %q", bot.nick, "testbot")
	}

	if bot.token != "token123" {
		t.Errorf("token: got %q, want %q", bot.token, "token123")
	}
}

func TestBotOptions(t *testing.T) {
	bot := NewBot("testbot", "token",
		WithBotURL("wss://custom.url"),
		WithBotAutoReconnect(false),
	)

	if bot.url != "wss://custom.url" {
		t.Errorf("url: got %q, want %q", bot.url, "wss://custom.url")
	}

	if bot.autoReconnect == nil || *bot.autoReconnect != false {
		t.Error("autoReconnect should be false")
	}
}

func TestBotEventHandlers(t *testing.T) {
	bot := NewBot("testbot", "token")

	var (
		msgCalled     bool
		connectCalled bool
		disconnCalled bool
		errorCalled   bool
	)

	bot.OnMessage(func(m *ChatMessage) { msgCalled = true })
	bot.OnConnect(func() { connectCalled = true })
	bot.OnDisconnect(func() { disconnCalled = true })
	bot.OnError(func(err error) { errorCalled = true })

	bot.handleMessage(&ChatMessage{})
	if !msgCalled {
		t.Error("OnMessage not called")
	}

	bot.handleConnect()
	if !connectCalled {
		t.Error("OnConnect not called")
	}

	bot.handleDisconnect()
	if !disconnCalled {
		t.Error("OnDisconnect not called")
	}

	bot.handleError(ErrNotConnected)
	if !errorCalled {
		t.Error("OnError not called")
	}
}

func TestBotUnconnectedMethods(t *testing.T) {
	bot := NewBot("testbot", "token")

	if bot.IsConnected() {
		t.Error("bot should not be connected before Connect")
	}

	if err := bot.Say("channel", "hi"); err != ErrNotConnected {
		t.Errorf("Say before connect: got %v, want %v", err, ErrNotConnected)
	}
	if err := bot.Reply("channel", "msgid", "hi"); err != ErrNotConnected {
		t.Errorf("Reply before connect: got %v, want %v", err, ErrNotConnected)
	}
	if err := bot.Whisper("user", "hi"); err != ErrNotConnected {
		t.Errorf("Whisper before connect: got %v, want %v", err, ErrNotConnected)
	}
	if err := bot.Close(); err != nil {
		t.Errorf("Close before connect: %v", err)
	}
	if channels := bot.GetJoinedChannels(); channels != nil {
		t.Errorf("GetJoinedChannels before connect: got %v, want nil", channels)
	}
}
