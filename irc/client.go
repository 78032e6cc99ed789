package irc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// TwitchWebSocket is the default Twitch IRC websocket endpoint.
	TwitchWebSocket = "wss://irc-ws.chat.twitch.tv:443"
)

const (
	cmdCAP       = "CAP"
	cmdPASS      = "PASS"
	cmdNICK      = "NICK"
	cmdJOIN      = "JOIN"
	cmdPART      = "PART"
	cmdPRIVMSG   = "PRIVMSG"
	cmdPING      = "PING"
	cmdPONG      = "PONG"
	cmdRECONNECT = "RECONNECT"
)

var (
	ErrNotConnected     = errors.New("irc: not connected")
	ErrAlreadyConnected = errors.New("irc: already connected")
	ErrAuthFailed       = errors.New("irc: authentication failed")
)

// Client is a minimal Twitch IRC transport: connect, join, send PRIVMSG
// and whispers, and dispatch incoming chat messages. Everything else in
// the IRCv3 membership/tags capability set is parsed only as far as
// ChatMessage needs it.
type Client struct {
	url   string
	conn  *websocket.Conn
	nick  string
	token string

	channels map[string]bool

	onMessage    func(*ChatMessage)
	onError      func(error)
	onConnect    func()
	onDisconnect func()

	mu        sync.RWMutex
	connected bool
	stopChan  chan struct{}
	writeMu   sync.Mutex

	autoReconnect  bool
	reconnectDelay time.Duration
	capabilities   []string
}

// Option configures a Client.
type Option func(*Client)

func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

func WithAutoReconnect(enabled bool) Option {
	return func(c *Client) { c.autoReconnect = enabled }
}

func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) { c.reconnectDelay = d }
}

func WithMessageHandler(fn func(*ChatMessage)) Option {
	return func(c *Client) { c.onMessage = fn }
}

func WithErrorHandler(fn func(error)) Option {
	return func(c *Client) { c.onError = fn }
}

func WithConnectHandler(fn func()) Option {
	return func(c *Client) { c.onConnect = fn }
}

func WithDisconnectHandler(fn func()) Option {
	return func(c *Client) { c.onDisconnect = fn }
}

// NewClient builds a Client for nick, authenticating with token (the
// "oauth:" prefix is added if missing).
func NewClient(nick, token string, opts ...Option) *Client {
	if !strings.HasPrefix(token, "oauth:") {
		token = "oauth:" + token
	}

	c := &Client{
		url:            TwitchWebSocket,
		nick:           strings.ToLower(nick),
		token:          token,
		channels:       map[string]bool{},
		autoReconnect:  true,
		reconnectDelay: 5 * time.Second,
		capabilities:   []string{"twitch.tv/tags", "twitch.tv/commands"},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Connect dials the IRC endpoint, authenticates, and starts the read
// loop. It blocks until the welcome message (or an auth failure) arrives.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("irc: dial: %w", err)
	}
	c.conn = conn
	c.stopChan = make(chan struct{})

	if err := c.send(fmt.Sprintf("%s REQ :%s", cmdCAP, strings.Join(c.capabilities, " "))); err != nil {
		return err
	}
	if err := c.send(fmt.Sprintf("%s %s", cmdPASS, c.token)); err != nil {
		return err
	}
	if err := c.send(fmt.Sprintf("%s %s", cmdNICK, c.nick)); err != nil {
		return err
	}

	if err := c.waitForAuth(ctx); err != nil {
		_ = c.conn.Close()
		return err
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	go c.readLoop()

	c.mu.RLock()
	channels := make([]string, 0, len(c.channels))
	for ch := range c.channels {
		channels = append(channels, ch)
	}
	c.mu.RUnlock()
	if len(channels) > 0 {
		_ = c.Join(channels...)
	}

	if c.onConnect != nil {
		c.onConnect()
	}

	return nil
}

func (c *Client) waitForAuth(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("irc: reading during auth: %w", err)
		}

		for _, line := range strings.Split(string(data), "\r\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			msg := parseMessage(line)

			switch msg.Command {
			case "001":
				return nil
			case "NOTICE":
				if strings.Contains(strings.ToLower(msg.Trailing), "login authentication failed") {
					return ErrAuthFailed
				}
			case cmdCAP:
				continue
			}
		}
	}
}

func (c *Client) readLoop() {
	defer func() {
		c.mu.Lock()
		wasConnected := c.connected
		c.connected = false
		c.mu.Unlock()

		if wasConnected && c.onDisconnect != nil {
			c.onDisconnect()
		}

		if c.autoReconnect && wasConnected {
			go c.reconnect()
		}
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		for _, line := range strings.Split(string(data), "\r\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			c.handleMessage(line)
		}
	}
}

func (c *Client) handleMessage(raw string) {
	msg := parseMessage(raw)

	switch msg.Command {
	case cmdPING:
		_ = c.send(fmt.Sprintf("%s :%s", cmdPONG, msg.Trailing))
	case cmdPRIVMSG:
		if c.onMessage != nil {
			c.onMessage(parseChatMessage(msg))
		}
	case cmdRECONNECT:
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		_ = c.conn.Close()
	}
}

func (c *Client) reconnect() {
	for {
		time.Sleep(c.reconnectDelay)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := c.Connect(ctx)
		cancel()
		if err == nil {
			return
		}
		if c.onError != nil {
			c.onError(fmt.Errorf("irc: reconnect failed: %w", err))
		}
	}
}

func (c *Client) send(message string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.WriteMessage(websocket.TextMessage, []byte(message+"\r\n"))
}

// Close shuts down the connection. It is safe to call on an unconnected
// client.
func (c *Client) Close() error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	if c.stopChan != nil {
		select {
		case <-c.stopChan:
		default:
			close(c.stopChan)
		}
	}

	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Join tracks channels and, if connected, sends the JOIN commands.
func (c *Client) Join(channels ...string) error {
	c.mu.Lock()
	for _, ch := range channels {
		c.channels[parseChannel(ch)] = true
	}
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		return nil
	}

	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = "#" + parseChannel(ch)
	}
	return c.send(fmt.Sprintf("%s %s", cmdJOIN, strings.Join(names, ",")))
}

func (c *Client) Part(channels ...string) error {
	c.mu.Lock()
	for _, ch := range channels {
		delete(c.channels, parseChannel(ch))
	}
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		return nil
	}

	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = "#" + parseChannel(ch)
	}
	return c.send(fmt.Sprintf("%s %s", cmdPART, strings.Join(names, ",")))
}

func (c *Client) Say(channel, message string) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return c.send(fmt.Sprintf("%s #%s :%s", cmdPRIVMSG, parseChannel(channel), message))
}

func (c *Client) Reply(channel, parentMsgID, message string) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return c.send(fmt.Sprintf("@reply-parent-msg-id=%s %s #%s :%s", parentMsgID, cmdPRIVMSG, parseChannel(channel), message))
}

func (c *Client) Whisper(user, message string) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return c.send(fmt.Sprintf("%s #jtv :/w %s %s", cmdPRIVMSG, user, message))
}

func (c *Client) GetJoinedChannels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	channels := make([]string, 0, len(c.channels))
	for ch := range c.channels {
		channels = append(channels, ch)
	}
	return channels
}
