// Package tokenrefresh runs the periodic background loop (C10) that
// keeps every stored OAuth credential refreshed ahead of its expiry.
package tokenrefresh

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/nerix-tools/redemptiond/internal/credstore"
	"github.com/nerix-tools/redemptiond/internal/platform"
	"github.com/nerix-tools/redemptiond/internal/store"
)

// interval is the refresher's polling cadence.
const interval = "@every 5m"

// refreshWindow is how far ahead of expiry a token is eligible for
// refresh, per spec.md §3's credential invariant.
const refreshWindow = 10 * time.Minute

// Refresher keeps one AuthClient per credential kind refreshed, since
// each subject authenticates against a different OAuth provider.
type Refresher struct {
	store       credstore.Store
	authClients map[store.CredentialKind]*platform.AuthClient
	botSlot     *credstore.BotSlot
	log         zerolog.Logger
	cron        *cron.Cron
	now         func() time.Time
}

// New builds a Refresher. authClients must have an entry for every
// credential kind Start should scan; botSlot may be nil if the bot
// identity isn't refreshed by this process.
func New(store credstore.Store, authClients map[store.CredentialKind]*platform.AuthClient, botSlot *credstore.BotSlot, log zerolog.Logger) *Refresher {
	return &Refresher{
		store:       store,
		authClients: authClients,
		botSlot:     botSlot,
		log:         log,
		cron:        cron.New(),
		now:         time.Now,
	}
}

// Start schedules the periodic refresh. It does not block.
func (r *Refresher) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(interval, func() {
		if err := r.Tick(ctx); err != nil {
			r.log.Error().Err(err).Msg("tokenrefresh: tick failed")
		}
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the schedule, waiting for any in-flight tick to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

// Tick runs one refresh pass synchronously over every configured
// credential kind.
func (r *Refresher) Tick(ctx context.Context) error {
	for kind, authClient := range r.authClients {
		creds, err := r.store.List(kind)
		if err != nil {
			return err
		}
		for _, c := range creds {
			r.maybeRefresh(ctx, authClient, c)
		}
	}
	return nil
}

func (r *Refresher) maybeRefresh(ctx context.Context, authClient *platform.AuthClient, c credstore.Credential) {
	if c.Broken {
		return
	}
	if r.now().Add(refreshWindow).Before(c.ExpiresAt) {
		return
	}

	log := r.log.With().Str("subject_kind", string(c.SubjectKind)).Str("subject_id", c.SubjectID).Logger()

	token, err := authClient.RefreshToken(ctx, c.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("tokenrefresh: refresh failed, marking credential broken")
		if err := r.store.MarkBroken(c.SubjectKind, c.SubjectID); err != nil {
			log.Error().Err(err).Msg("tokenrefresh: marking credential broken failed")
		}
		return
	}

	refreshed := c
	refreshed.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		refreshed.RefreshToken = token.RefreshToken
	}
	refreshed.ExpiresAt = token.ExpiresAt
	refreshed.Broken = false

	if err := r.store.Save(refreshed); err != nil {
		log.Error().Err(err).Msg("tokenrefresh: saving refreshed credential failed")
		return
	}

	if r.botSlot != nil && c.SubjectKind == store.CredentialBot {
		r.botSlot.Set(refreshed)
	}
}
