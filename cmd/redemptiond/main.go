// Command redemptiond runs the channel-points redemption dispatcher:
// webhook ingress, reward execution, the slot sweeper, the live-state
// scheduler, the token refresher, and the chat command surface, all
// wired to a single Postgres and Redis backend.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/nerix-tools/redemptiond/internal/audit"
	"github.com/nerix-tools/redemptiond/internal/cache"
	"github.com/nerix-tools/redemptiond/internal/chatcmd"
	"github.com/nerix-tools/redemptiond/internal/chatsink"
	"github.com/nerix-tools/redemptiond/internal/chatsink/ircsink"
	"github.com/nerix-tools/redemptiond/internal/config"
	"github.com/nerix-tools/redemptiond/internal/credstore"
	"github.com/nerix-tools/redemptiond/internal/dispatcher"
	"github.com/nerix-tools/redemptiond/internal/emote"
	"github.com/nerix-tools/redemptiond/internal/emote/bttv"
	"github.com/nerix-tools/redemptiond/internal/emote/ffz"
	"github.com/nerix-tools/redemptiond/internal/emote/seventv"
	"github.com/nerix-tools/redemptiond/internal/executor"
	"github.com/nerix-tools/redemptiond/internal/livescheduler"
	"github.com/nerix-tools/redemptiond/internal/logging"
	"github.com/nerix-tools/redemptiond/internal/musicprovider"
	"github.com/nerix-tools/redemptiond/internal/platform"
	"github.com/nerix-tools/redemptiond/internal/reload"
	"github.com/nerix-tools/redemptiond/internal/store"
	"github.com/nerix-tools/redemptiond/internal/sweeper"
	"github.com/nerix-tools/redemptiond/internal/throttle"
	"github.com/nerix-tools/redemptiond/internal/timeoutguard"
	"github.com/nerix-tools/redemptiond/internal/tokenrefresh"
	"github.com/nerix-tools/redemptiond/internal/webhook"
	"github.com/nerix-tools/redemptiond/irc"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("redemptiond: fatal error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parsing redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	emoteCache := cache.New(redisClient, "emotes")
	expiredSlotCache := cache.New(redisClient, "expiredslots")
	platformCache := cache.New(redisClient, "platform")

	creds := credstore.NewDBStore(db)
	botSlot := credstore.NewBotSlot()
	if bot, err := creds.Get(store.CredentialBot, cfg.BotUserID); err == nil {
		botSlot.Set(*bot)
	} else {
		botSlot.Set(credstore.Credential{
			SubjectKind: store.CredentialBot,
			SubjectID:   cfg.BotUserID,
			AccessToken: cfg.BotAccessToken,
		})
	}

	platformAuth := platform.NewAuthClient(platform.AuthConfig{
		ClientID:     cfg.Platform.ClientID,
		ClientSecret: cfg.Platform.ClientSecret,
		TokenURL:     platform.DefaultTokenURL,
	})
	if botCred, ok := botSlot.Get(); ok {
		platformAuth.SetCurrentToken(&platform.Token{AccessToken: botCred.AccessToken})
	}
	musicAuth := platform.NewAuthClient(platform.AuthConfig{
		ClientID:     cfg.MusicProvider.ClientID,
		ClientSecret: cfg.MusicProvider.ClientSecret,
		TokenURL:     musicprovider.DefaultTokenURL,
	})

	platformClient := platform.NewClient(cfg.Platform.ClientID, platform.DefaultBaseURL, platformAuth,
		platform.WithCache(platformCache, 5*time.Minute))

	adapters := map[store.Platform]emote.Adapter{
		store.PlatformBTTV:    bttv.New(cfg.BTTV.ClientSecret),
		store.PlatformFFZ:     ffz.New(cfg.FFZ.ClientSecret, emoteCache),
		store.PlatformSevenTV: seventv.New(cfg.SevenTV.ClientSecret),
	}

	musicClient := musicprovider.New()

	bot := irc.NewBot(cfg.BotUserID, cfg.BotAccessToken)
	chat := ircsink.New(bot)

	auditSink, err := audit.NewSink(log, cfg.AuditWebhookURL)
	if err != nil {
		return fmt.Errorf("building audit sink: %w", err)
	}

	guard := timeoutguard.New(db, logging.For(log, "timeoutguard"))
	deps := executor.Deps{
		DB:            db,
		Platform:      platformClient,
		Chat:          chat,
		Guard:         guard,
		Adapters:      adapters,
		MusicProvider: musicClient,
		Credentials:   creds,
		Log:           logging.For(log, "executor"),
	}

	disp := dispatcher.New(db, platformClient, deps, auditSink, logging.For(log, "dispatcher"))
	gate := throttle.New(redisClient)

	reconcile := reload.New(db, platformClient, adapters, emoteCache, logging.For(log, "reload"))
	commands := chatcmd.New(cfg.CommandPrefix, db, reconcile, chat, logging.For(log, "chatcmd"))

	scheduler := livescheduler.New(db, ratePauser{platformClient}, chatsink.Announce{Sink: chat}, logging.For(log, "livescheduler"))
	sweep := sweeper.New(db, adapters, expiredSlotCache, logging.For(log, "sweeper"))
	refresher := tokenrefresh.New(creds, map[store.CredentialKind]*platform.AuthClient{
		store.CredentialStreamer: platformAuth,
		store.CredentialBot:      platformAuth,
		store.CredentialMusic:    musicAuth,
	}, botSlot, logging.For(log, "tokenrefresh"))

	bot.OnMessage(func(msg *irc.ChatMessage) {
		ctx := context.Background()
		err := commands.Handle(ctx, chatcmd.Message{
			ChannelID:     msg.UserID,
			ChannelLogin:  msg.Channel,
			UserID:        msg.UserID,
			UserLogin:     msg.User,
			Text:          msg.Message,
			IsMod:         msg.IsMod,
			IsBroadcaster: msg.IsBroadcaster,
		})
		if err != nil {
			log.Error().Err(err).Msg("redemptiond: chat command failed")
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("starting live-state scheduler: %w", err)
	}
	if err := sweep.Start(ctx); err != nil {
		return fmt.Errorf("starting sweeper: %w", err)
	}
	if err := refresher.Start(ctx); err != nil {
		return fmt.Errorf("starting token refresher: %w", err)
	}
	defer sweep.Stop()
	defer refresher.Stop()
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := guard.GC(); err != nil {
					log.Error().Err(err).Msg("redemptiond: timeout guard gc failed")
				}
			}
		}
	}()

	if err := bot.Connect(ctx); err != nil {
		log.Error().Err(err).Msg("redemptiond: chat bot connect failed, continuing without chat")
	}

	hook := webhook.New(cfg.WebhookSecret, logging.For(log, "webhook"))
	hook.OnNotification = func(msg *webhook.Message) {
		handleNotification(ctx, msg, db, gate, disp, scheduler, log)
	}

	mux := http.NewServeMux()
	mux.Handle("/eventsub", hook)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.HTTPBindAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("redemptiond: http server failed")
		}
	}()
	log.Info().Str("addr", cfg.HTTPBindAddr).Msg("redemptiond: listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("redemptiond: shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// handleNotification routes a verified webhook delivery to the redemption
// dispatcher or the live-state scheduler depending on subscription type.
func handleNotification(ctx context.Context, msg *webhook.Message, db *store.DB, gate *throttle.Throttle, disp *dispatcher.Dispatcher, scheduler *livescheduler.Scheduler, log zerolog.Logger) {
	switch msg.SubscriptionType {
	case platform.SubscriptionRedemptionAdd:
		event, err := webhook.ParseEvent[platform.Redemption](msg)
		if err != nil {
			log.Error().Err(err).Msg("redemptiond: parsing redemption event failed")
			return
		}
		allowed, err := gate.AllowRedemption(ctx, event.BroadcasterID, event.UserID, event.Reward.ID)
		if err != nil {
			log.Error().Err(err).Msg("redemptiond: throttle check failed")
			return
		}
		if !allowed {
			return
		}
		channel, err := db.GetChannel(event.BroadcasterID)
		if err != nil {
			log.Error().Err(err).Str("channel_id", event.BroadcasterID).Msg("redemptiond: unknown channel")
			return
		}
		r := executor.Redemption{
			ID:           event.ID,
			ChannelID:    event.BroadcasterID,
			ChannelLogin: channel.Login,
			RewardID:     event.Reward.ID,
			UserID:       event.UserID,
			UserLogin:    event.UserLogin,
			UserInput:    event.UserInput,
			RedeemedAt:   event.RedeemedAt,
		}
		if err := disp.Dispatch(ctx, r); err != nil {
			log.Error().Err(err).Str("redemption_id", event.ID).Msg("redemptiond: dispatch failed")
		}
	case platform.SubscriptionStreamOnline:
		event, err := webhook.ParseEvent[platform.StreamOnlineEvent](msg)
		if err != nil {
			log.Error().Err(err).Msg("redemptiond: parsing stream.online event failed")
			return
		}
		if err := db.SetLive(event.BroadcasterUserID, true, &event.StartedAt); err != nil {
			log.Error().Err(err).Msg("redemptiond: recording live state failed")
		}
		if err := scheduler.HandleOnline(ctx, livescheduler.OnlineEvent{ChannelID: event.BroadcasterUserID, StartedAt: event.StartedAt}); err != nil {
			log.Error().Err(err).Msg("redemptiond: live-state online handling failed")
		}
	case platform.SubscriptionStreamOffline:
		event, err := webhook.ParseEvent[platform.StreamOfflineEvent](msg)
		if err != nil {
			log.Error().Err(err).Msg("redemptiond: parsing stream.offline event failed")
			return
		}
		if err := db.SetLive(event.BroadcasterUserID, false, nil); err != nil {
			log.Error().Err(err).Msg("redemptiond: recording live state failed")
		}
		if err := scheduler.HandleOffline(ctx, livescheduler.OfflineEvent{ChannelID: event.BroadcasterUserID}); err != nil {
			log.Error().Err(err).Msg("redemptiond: live-state offline handling failed")
		}
	}
}

// ratePauser adapts platform.Client to livescheduler.RewardPauser.
type ratePauser struct {
	client *platform.Client
}

func (p ratePauser) SetRewardPaused(ctx context.Context, broadcasterID, rewardID string, paused bool) error {
	return p.client.SetRewardPaused(ctx, platform.PauseRewardParams{
		BroadcasterID: broadcasterID,
		RewardID:      rewardID,
		IsPaused:      paused,
	})
}
