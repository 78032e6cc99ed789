// Package audit implements the structured "title, color, fields" record
// that every component reports outcomes through: it always logs, and
// best-effort fans the same record out to a Discord audit webhook.
//
// This replaces the macro-based logging/audit helper described in
// spec.md §9 without introducing any language-specific metaprogramming.
package audit

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// Color constants mirror the three outcomes the dispatcher and executors
// report: an accent for success, a warning tone for user-visible refund
// cancellations, and red for unexpected failures.
const (
	ColorSuccess = 0x2ecc71
	ColorWarn    = 0xf1c40f
	ColorError   = 0xe74c3c
)

// Field is one key/value pair attached to a Record.
type Field struct {
	Name  string
	Value string
}

// Record is the structured payload every audit call reports.
type Record struct {
	Title  string
	Color  int
	Fields []Field
}

// Sink fans a Record out to the process log and, if configured, a Discord
// webhook. A nil webhook client degrades to log-only, which is the
// expected shape in tests and in deployments that opt out of Discord
// auditing (spec.md §6: "optional audit-webhook URL").
type Sink struct {
	log     zerolog.Logger
	session *discordgo.Session
	webhookID, webhookToken string
}

// NewSink builds a Sink. webhookURL may be empty, in which case Emit only
// logs. The expected shape is a Discord "incoming webhook" URL:
// https://discord.com/api/webhooks/{id}/{token}.
func NewSink(log zerolog.Logger, webhookURL string) (*Sink, error) {
	s := &Sink{log: log}
	if webhookURL == "" {
		return s, nil
	}

	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}

	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("audit: building discord session: %w", err)
	}
	s.session = session
	s.webhookID = id
	s.webhookToken = token
	return s, nil
}

func parseWebhookURL(raw string) (id, token string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("malformed webhook url %q", raw)
	}
	id, token = parts[len(parts)-2], parts[len(parts)-1]
	if _, convErr := strconv.ParseUint(id, 10, 64); convErr != nil {
		return "", "", fmt.Errorf("malformed webhook id %q", id)
	}
	return id, token, nil
}

// Emit writes rec to the logger and, if a webhook is configured, posts it
// as a colored embed. The webhook send never blocks or propagates an
// error to the caller — it is best-effort, matching the fire-and-forget
// discord actor in the original source.
func (s *Sink) Emit(rec Record) {
	evt := s.log.Info()
	for _, f := range rec.Fields {
		evt = evt.Str(f.Name, f.Value)
	}
	evt.Msg(rec.Title)

	if s.session == nil {
		return
	}
	go s.postEmbed(rec)
}

func (s *Sink) postEmbed(rec Record) {
	embed := &discordgo.MessageEmbed{
		Title: rec.Title,
		Color: rec.Color,
	}
	for _, f := range rec.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: true,
		})
	}

	_, err := s.session.WebhookExecute(s.webhookID, s.webhookToken, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("audit: failed to post discord embed")
	}
}
