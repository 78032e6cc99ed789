// Package chatcmd implements the streamer-facing chat command surface
// (spec.md §9 SUPPLEMENTED FEATURES): a small, prefix-triggered dispatch
// table wired to a single incoming chat line, distinct from the reward
// redemption flow.
package chatcmd

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nerix-tools/redemptiond/internal/chatsink"
	"github.com/nerix-tools/redemptiond/internal/reload"
	"github.com/nerix-tools/redemptiond/internal/store"
)

// Message is the subset of an incoming chat line a command handler
// needs, decoupling the registry from the IRC transport's own type.
type Message struct {
	ChannelID     string
	ChannelLogin  string
	UserID        string
	UserLogin     string
	Text          string
	IsMod         bool
	IsBroadcaster bool
}

// Handler runs one command's side effect and returns the chat reply, if
// any.
type Handler func(ctx context.Context, msg Message, args []string) (string, error)

// Registry dispatches prefixed chat commands to their handlers.
type Registry struct {
	prefix   string
	db       *store.DB
	reconcile *reload.Reconciler
	chat     chatsink.Sink
	log      zerolog.Logger
	handlers map[string]Handler
}

// New builds a Registry and wires its built-in commands.
func New(prefix string, db *store.DB, reconcile *reload.Reconciler, chat chatsink.Sink, log zerolog.Logger) *Registry {
	r := &Registry{
		prefix:    prefix,
		db:        db,
		reconcile: reconcile,
		chat:      chat,
		log:       log,
		handlers:  map[string]Handler{},
	}
	r.handlers["ping"] = r.handlePing
	r.handlers["about"] = r.handleAbout
	r.handlers["reload"] = r.handleReload
	r.handlers["sync"] = r.handleSync
	return r
}

// Handle parses msg for a prefixed command and runs it, replying in chat
// if the handler produced a reply. It is a no-op for any line that
// doesn't start with the configured prefix or name a known command.
func (r *Registry) Handle(ctx context.Context, msg Message) error {
	if !strings.HasPrefix(msg.Text, r.prefix) {
		return nil
	}
	fields := strings.Fields(strings.TrimPrefix(msg.Text, r.prefix))
	if len(fields) == 0 {
		return nil
	}

	name, args := strings.ToLower(fields[0]), fields[1:]
	handler, ok := r.handlers[name]
	if !ok {
		return nil
	}

	if requiresEditor(name) {
		allowed, err := r.authorized(msg)
		if err != nil {
			return err
		}
		if !allowed {
			return nil
		}
	}

	reply, err := handler(ctx, msg, args)
	if err != nil {
		r.log.Error().Err(err).Str("command", name).Str("channel_id", msg.ChannelID).Msg("chatcmd: handler failed")
		return err
	}
	if reply == "" {
		return nil
	}
	return r.chat.SendLine(ctx, msg.ChannelLogin, reply)
}

// requiresEditor reports whether name is gated to broadcasters/mods/
// editors, as opposed to open to any viewer.
func requiresEditor(name string) bool {
	switch name {
	case "reload", "sync":
		return true
	default:
		return false
	}
}

func (r *Registry) authorized(msg Message) (bool, error) {
	if msg.IsBroadcaster || msg.IsMod {
		return true, nil
	}
	return r.db.IsEditor(msg.ChannelID, msg.UserID)
}

func (r *Registry) handlePing(ctx context.Context, msg Message, args []string) (string, error) {
	return "pong", nil
}

func (r *Registry) handleAbout(ctx context.Context, msg Message, args []string) (string, error) {
	return "redemptiond: channel points reward dispatcher", nil
}

func (r *Registry) handleReload(ctx context.Context, msg Message, args []string) (string, error) {
	if err := r.reconcile.Reload(ctx, msg.ChannelID); err != nil {
		return "", err
	}
	return "reloaded emote inventory", nil
}

func (r *Registry) handleSync(ctx context.Context, msg Message, args []string) (string, error) {
	removed, err := r.reconcile.Sync(ctx, msg.ChannelID, msg.ChannelID)
	if err != nil {
		return "", err
	}
	if removed == 0 {
		return "sync: no stale rewards found", nil
	}
	return "sync: removed " + strconv.Itoa(removed) + " stale reward(s)", nil
}
