package irc

import (
	"context"
	"sync"
)

// Bot wraps Client with the chat-sink surface the dispatcher needs:
// connect once, receive PRIVMSG, send lines/replies/whispers.
type Bot struct {
	client *Client

	nick  string
	token string
	url   string

	autoReconnect *bool

	onMessage    func(*ChatMessage)
	onConnect    func()
	onDisconnect func()
	onError      func(error)

	mu sync.RWMutex
}

// BotOption configures a Bot.
type BotOption func(*Bot)

func WithBotURL(url string) BotOption {
	return func(b *Bot) { b.url = url }
}

func WithBotAutoReconnect(enabled bool) BotOption {
	return func(b *Bot) { b.autoReconnect = &enabled }
}

// NewBot builds a Bot authenticating as nick with token.
func NewBot(nick, token string, opts ...BotOption) *Bot {
	b := &Bot{
		nick:  nick,
		token: token,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bot) OnMessage(fn func(*ChatMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onMessage = fn
}

func (b *Bot) OnConnect(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onConnect = fn
}

func (b *Bot) OnDisconnect(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onDisconnect = fn
}

func (b *Bot) OnError(fn func(error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = fn
}

// Connect builds the underlying Client and connects it.
func (b *Bot) Connect(ctx context.Context) error {
	opts := []Option{
		WithMessageHandler(b.handleMessage),
		WithConnectHandler(b.handleConnect),
		WithDisconnectHandler(b.handleDisconnect),
		WithErrorHandler(b.handleError),
	}
	if b.url != "" {
		opts = append(opts, WithURL(b.url))
	}
	if b.autoReconnect != nil {
		opts = append(opts, WithAutoReconnect(*b.autoReconnect))
	}

	b.client = NewClient(b.nick, b.token, opts...)
	return b.client.Connect(ctx)
}

func (b *Bot) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

func (b *Bot) IsConnected() bool {
	return b.client != nil && b.client.IsConnected()
}

func (b *Bot) Join(channels ...string) error {
	if b.client == nil {
		return ErrNotConnected
	}
	return b.client.Join(channels...)
}

func (b *Bot) Part(channels ...string) error {
	if b.client == nil {
		return ErrNotConnected
	}
	return b.client.Part(channels...)
}

func (b *Bot) Say(channel, message string) error {
	if b.client == nil {
		return ErrNotConnected
	}
	return b.client.Say(channel, message)
}

func (b *Bot) Reply(channel, parentMsgID, message string) error {
	if b.client == nil {
		return ErrNotConnected
	}
	return b.client.Reply(channel, parentMsgID, message)
}

func (b *Bot) Whisper(user, message string) error {
	if b.client == nil {
		return ErrNotConnected
	}
	return b.client.Whisper(user, message)
}

func (b *Bot) GetJoinedChannels() []string {
	if b.client == nil {
		return nil
	}
	return b.client.GetJoinedChannels()
}

func (b *Bot) Client() *Client {
	return b.client
}

func (b *Bot) handleMessage(msg *ChatMessage) {
	b.mu.RLock()
	onMessage := b.onMessage
	b.mu.RUnlock()

	if onMessage != nil {
		onMessage(msg)
	}
}

func (b *Bot) handleConnect() {
	b.mu.RLock()
	fn := b.onConnect
	b.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (b *Bot) handleDisconnect() {
	b.mu.RLock()
	fn := b.onDisconnect
	b.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (b *Bot) handleError(err error) {
	b.mu.RLock()
	fn := b.onError
	b.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}
