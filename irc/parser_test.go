package irc

import (
	"testing"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected *Message
	}{
		{
			name: "simple command",
			raw:  "PING :tmi.twitch.tv",
			expected: &Message{
				Raw:      "PING :tmi.twitch.tv",
				Tags:     map[string]string{},
				Command:  "PING",
				Trailing: "tmi.twitch.tv",
			},
		},
		{
			name: "privmsg with tags",
			raw:  "@badge-info=;badges=broadcaster/1;color=#FF0000;display-name=TestUser;id=abc123;mod=0;room-id=12345;tmi-sent-ts=1234567890123;user-id=12345 :testuser!testuser@testuser.tmi.twitch.tv PRIVMSG #testchannel :Hello World",
			expected: &Message{
				Raw: "@badge-info=;badges=broadcaster/1;color=#FF0000;display-name=TestUser;id=abc123;mod=0;room-id=12345;tmi-sent-ts=1234567890123;user-id=12345 :testuser!testuser@testuser.tmi.twitch.tv PRIVMSG #testchannel :Hello World",
				Tags: map[string]string{
					"badge-info":   "",
					"badges":       "broadcaster/1",
					"color":        "#FF0000",
					"display-name": "TestUser",
					"id":           "abc123",
					"mod":          "0",
					"room-id":      "12345",
					"tmi-sent-ts":  "1234567890123",
					"user-id":      "12345",
				},
				Prefix:   "testuser!testuser@testuser.tmi.twitch.tv",
				Command:  "PRIVMSG",
				Params:   []string{"#testchannel"},
				Trailing: "Hello World",
			},
		},
		{
			name: "cap ack",
			raw:  ":tmi.twitch.tv CAP * ACK :twitch.tv/tags twitch.tv/commands",
			expected: &Message{
				Raw:      ":tmi.twitch.tv CAP * ACK :twitch.tv/tags twitch.tv/commands",
				Tags:     map[string]string{},
				Prefix:   "tmi.twitch.tv",
				Command:  "CAP",
				Params:   []string{"*", "ACK"},
				Trailing: "twitch.tv/tags twitch.tv/commands",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseMessage(tt.raw)

			if result.Raw != tt.expected.Raw {
				t.Errorf("Raw mismatch: got %q, want %q", result.Raw, tt.expected.Raw)
			}
			if result.Prefix != tt.expected.Prefix {
				t.Errorf("Prefix mismatch: got %q, want %q", result.Prefix, tt.expected.Prefix)
			}
			if result.Command != tt.expected.Command {
				t.Errorf("Command mismatch: got %q, want %q", result.Command, tt.expected.Command)
			}
			if result.Trailing != tt.expected.Trailing {
				t.Errorf("Trailing mismatch: got %q, want %q", result.Trailing, tt.expected.Trailing)
			}
			if len(result.Params) != len(tt.expected.Params) {
				t.Fatalf("Params length mismatch: got %d, want %d", len(result.Params), len(tt.expected.Params))
			}
			for i, p := range result.Params {
				if p != tt.expected.Params[i] {
					t.Errorf("Params[%d] mismatch: got %q, want %q", i, p, tt.expected.Params[i])
				}
			}
			for k, v := range tt.expected.Tags {
				if result.Tags[k] != v {
					t.Errorf("Tags[%q] mismatch: got %q, want %q", k, result.Tags[k], v)
				}
			}
		})
	}
}

func TestUnescapeTagValue(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`hello\sworld`, "hello world"},
		{`a\:b`, "a;b"},
		{`a\\b`, `a\b`},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		got := unescapeTagValue(tt.in)
		if got != tt.want {
			t.Errorf("unescapeTagValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseBadges(t *testing.T) {
	badges := parseBadges("broadcaster/1,subscriber/12")
	if badges["broadcaster"] != "1" {
		t.Errorf("broadcaster badge: got %q, want %q", badges["broadcaster"], "1")
	}
	if badges["subscriber"] != "12" {
		t.Errorf("subscriber badge: got %q, want %q", badges["subscriber"], "12")
	}

	empty := parseBadges("")
	if len(empty) != 0 {
		t.Errorf("expected empty badge map, got %v", empty)
	}
}

func TestParseChannel(t *testing.T) {
	if got := parseChannel("#somechannel"); got != "somechannel" {
		t.Errorf("parseChannel: got %q, want %q", got, "somechannel")
	}
	if got := parseChannel("somechannel"); got != "somechannel" {
		t.Errorf("parseChannel: got %q, want %q", got, "somechannel")
	}
}

func TestParseUserFromPrefix(t *testing.T) {
	if got := parseUserFromPrefix("testuser!testuser@testuser.tmi.twitch.tv"); got != "testuser" {
		t.Errorf("parseUserFromPrefix: got %q, want %q", got, "testuser")
	}
	if got := parseUserFromPrefix("tmi.twitch.tv"); got != "tmi.twitch.tv" {
		t.Errorf("parseUserFromPrefix: got %q, want %q", got, "tmi.twitch.tv")
	}
}

func TestParseChatMessage(t *testing.T) {
	raw := "@badges=broadcaster/1;display-name=TestUser;id=abc123;mod=0;tmi-sent-ts=1000;user-id=12345 :testuser!testuser@testuser.tmi.twitch.tv PRIVMSG #somechannel :Hello World"
	msg := parseMessage(raw)
	chat := parseChatMessage(msg)

	if chat.ID != "abc123" {
		t.Errorf("ID: got %q, want %q", chat.ID, "abc123")
	}
	if chat.Channel != "somechannel" {
		t.Errorf("Channel: got %q, want %q", chat.Channel, "somechannel")
	}
	if chat.User != "testuser" {
		t.Errorf("User: got %q, want %q", chat.User, "testuser")
	}
	if chat.UserID != "12345" {
		t.Errorf("UserID: got %q, want %q", chat.UserID, "12345")
	}
	if chat.Message != "Hello World" {
		t.Errorf("Message: got %q, want %q", chat.Message, "Hello World")
	}
	if !chat.IsBroadcaster {
		t.Error("IsBroadcaster should be true")
	}
	if !chat.IsMod {
		t.Error("IsMod should be true for broadcaster")
	}
	if chat.Timestamp.UnixMilli() != 1000 {
		t.Errorf("Timestamp: got %d, want %d", chat.Timestamp.UnixMilli(), 1000)
	}
}

func TestParseChatMessageNonMod(t *testing.T) {
	raw := "@badges=;mod=0;user-id=99 :regular!regular@regular.tmi.twitch.tv PRIVMSG #somechannel :hi"
	chat := parseChatMessage(parseMessage(raw))

	if chat.IsMod {
		t.Error("IsMod should be false for a regular viewer")
	}
	if chat.IsBroadcaster {
		t.Error("IsBroadcaster should be false for a regular viewer")
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	ts := parseTimestamp("not-a-number")
	if !ts.IsZero() {
		t.Errorf("expected zero time for invalid timestamp, got %v", ts)
	}
}
