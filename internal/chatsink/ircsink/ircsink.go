// Package ircsink adapts the IRC chat bot to the chatsink.Sink
// capability interface.
package ircsink

import (
	"context"
	"fmt"

	"github.com/nerix-tools/redemptiond/irc"
)

// Sink wraps an irc.Bot to implement chatsink.Sink.
type Sink struct {
	bot *irc.Bot
}

// New builds a Sink over an already-connected bot.
func New(bot *irc.Bot) *Sink {
	return &Sink{bot: bot}
}

func (s *Sink) SendLine(ctx context.Context, channelLogin, message string) error {
	if err := s.bot.Say(channelLogin, message); err != nil {
		return fmt.Errorf("ircsink: send line to %s: %w", channelLogin, err)
	}
	return nil
}

func (s *Sink) Reply(ctx context.Context, channelLogin, parentMessageID, message string) error {
	if err := s.bot.Reply(channelLogin, parentMessageID, message); err != nil {
		return fmt.Errorf("ircsink: reply in %s: %w", channelLogin, err)
	}
	return nil
}

func (s *Sink) SendWhisper(ctx context.Context, toUser, message string) error {
	if err := s.bot.Whisper(toUser, message); err != nil {
		return fmt.Errorf("ircsink: whisper to %s: %w", toUser, err)
	}
	return nil
}
