// Package chatsink defines the chat-line delivery capability the
// executors, live-state scheduler, and chat-command registry depend on,
// so none of them needs to know which chat transport is actually wired.
package chatsink

import "context"

// Sink sends lines and whispers into a channel's chat.
type Sink interface {
	// SendLine posts message into channelLogin's chat.
	SendLine(ctx context.Context, channelLogin, message string) error

	// Reply posts message as a threaded reply to parentMessageID.
	Reply(ctx context.Context, channelLogin, parentMessageID, message string) error

	// SendWhisper sends message as a whisper to toUser.
	SendWhisper(ctx context.Context, toUser, message string) error
}

// Announce adapts Sink to livescheduler.Announcer, since a live-state
// announcement is just a chat line with no reply target.
type Announce struct {
	Sink Sink
}

func (a Announce) Announce(ctx context.Context, channelID, message string) error {
	return a.Sink.SendLine(ctx, channelID, message)
}
