package irc

import (
	"strconv"
	"strings"
	"time"
)

// Message is a single parsed IRCv3 line: optional tags, optional prefix,
// a command, and its parameters.
type Message struct {
	Tags     map[string]string
	Prefix   string
	Command  string
	Params   []string
	Trailing string
	Raw      string
}

// ChatMessage is an incoming PRIVMSG, trimmed to the fields the chat
// command dispatcher and reward-completion replies consume.
type ChatMessage struct {
	ID            string
	Channel       string
	User          string
	UserID        string
	Message       string
	DisplayName   string
	IsMod         bool
	IsBroadcaster bool
	Timestamp     time.Time
	Raw           string
}

func parseMessage(raw string) *Message {
	msg := &Message{
		Tags: map[string]string{},
		Raw:  raw,
	}

	rest := raw

	if strings.HasPrefix(rest, "@") {
		end := strings.Index(rest, " ")
		if end == -1 {
			return msg
		}
		msg.Tags = parseTags(rest[1:end])
		rest = strings.TrimSpace(rest[end+1:])
	}

	if strings.HasPrefix(rest, ":") {
		end := strings.Index(rest, " ")
		if end == -1 {
			msg.Prefix = rest[1:]
			return msg
		}
		msg.Prefix = rest[1:end]
		rest = strings.TrimSpace(rest[end+1:])
	}

	if idx := strings.Index(rest, " :"); idx != -1 {
		msg.Trailing = rest[idx+2:]
		rest = rest[:idx]
	} else if strings.HasPrefix(rest, ":") {
		msg.Trailing = rest[1:]
		rest = ""
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return msg
	}
	msg.Command = fields[0]
	if len(fields) > 1 {
		msg.Params = fields[1:]
	}

	return msg
}

func parseTags(tagStr string) map[string]string {
	tags := map[string]string{}
	if tagStr == "" {
		return tags
	}
	for _, pair := range strings.Split(tagStr, ";") {
		kv := strings.SplitN(pair, "=", 2)
		key := kv[0]
		value := ""
		if len(kv) == 2 {
			value = unescapeTagValue(kv[1])
		}
		tags[key] = value
	}
	return tags
}

func unescapeTagValue(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case ':':
				b.WriteByte(';')
			case 's':
				b.WriteByte(' ')
			case '\\':
				b.WriteByte('\\')
			case 'r':
				b.WriteByte('\r')
			case 'n':
				b.WriteByte('\n')
			default:
				b.WriteByte(s[i+1])
			}
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func parseBadges(badgeStr string) map[string]string {
	badges := map[string]string{}
	if badgeStr == "" {
		return badges
	}
	for _, b := range strings.Split(badgeStr, ",") {
		kv := strings.SplitN(b, "/", 2)
		if len(kv) == 2 {
			badges[kv[0]] = kv[1]
		}
	}
	return badges
}

func parseTimestamp(ts string) time.Time {
	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func parseBool(s string) bool {
	return s == "1"
}

func parseChannel(s string) string {
	return strings.TrimPrefix(s, "#")
}

func parseUserFromPrefix(prefix string) string {
	if idx := strings.Index(prefix, "!"); idx != -1 {
		return prefix[:idx]
	}
	return prefix
}

func parseChatMessage(msg *Message) *ChatMessage {
	badges := parseBadges(msg.Tags["badges"])

	channel := ""
	if len(msg.Params) > 0 {
		channel = parseChannel(msg.Params[0])
	}

	_, isBroadcaster := badges["broadcaster"]

	return &ChatMessage{
		ID:            msg.Tags["id"],
		Channel:       channel,
		User:          parseUserFromPrefix(msg.Prefix),
		UserID:        msg.Tags["user-id"],
		Message:       msg.Trailing,
		DisplayName:   msg.Tags["display-name"],
		IsMod:         parseBool(msg.Tags["mod"]) || isBroadcaster,
		IsBroadcaster: isBroadcaster,
		Timestamp:     parseTimestamp(msg.Tags["tmi-sent-ts"]),
		Raw:           msg.Raw,
	}
}
