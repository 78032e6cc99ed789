// Package config loads and validates the service's single configuration document.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ProviderCredential holds the client id/secret pair for one of the
// emote-platform or music-provider third parties.
type ProviderCredential struct {
	ClientID     string `validate:"required"`
	ClientSecret string `validate:"required"`
}

// Config is the single configuration document described in spec.md §6.
type Config struct {
	DatabaseURL string `validate:"required"`
	RedisURL    string `validate:"required"`

	HTTPBindAddr  string `validate:"required"`
	PublicBaseURL string `validate:"required,url"`
	LogLevel      string `validate:"required"`

	BotUserID      string `validate:"required"`
	BotAccessToken string `validate:"required"`

	OwnerUserID   string `validate:"required"`
	CommandPrefix string

	Platform      ProviderCredential `validate:"required"`
	BTTV          ProviderCredential `validate:"required"`
	FFZ           ProviderCredential `validate:"required"`
	SevenTV       ProviderCredential `validate:"required"`
	MusicProvider ProviderCredential `validate:"required"`

	WebhookSecret   string `validate:"required,min=16"`
	AuditWebhookURL string
	IDRemap         map[string]map[string]string // platform -> old id -> new id
}

// Load reads .env (if present), then the process environment, into a
// validated Config. Missing optional values fall back to documented
// defaults; missing required values produce a single aggregated error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		HTTPBindAddr:  getEnv("HTTP_BIND_ADDR", ":8080"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		BotUserID:      getEnv("BOT_USER_ID", ""),
		BotAccessToken: getEnv("BOT_ACCESS_TOKEN", ""),

		OwnerUserID:   getEnv("OWNER_USER_ID", ""),
		CommandPrefix: getEnv("COMMAND_PREFIX", "::"),

		Platform: ProviderCredential{
			ClientID:     getEnv("PLATFORM_CLIENT_ID", ""),
			ClientSecret: getEnv("PLATFORM_CLIENT_SECRET", ""),
		},
		BTTV: ProviderCredential{
			ClientID:     getEnv("BTTV_CLIENT_ID", ""),
			ClientSecret: getEnv("BTTV_CLIENT_SECRET", ""),
		},
		FFZ: ProviderCredential{
			ClientID:     getEnv("FFZ_CLIENT_ID", ""),
			ClientSecret: getEnv("FFZ_CLIENT_SECRET", ""),
		},
		SevenTV: ProviderCredential{
			ClientID:     getEnv("SEVENTV_CLIENT_ID", ""),
			ClientSecret: getEnv("SEVENTV_CLIENT_SECRET", ""),
		},
		MusicProvider: ProviderCredential{
			ClientID:     getEnv("MUSIC_CLIENT_ID", ""),
			ClientSecret: getEnv("MUSIC_CLIENT_SECRET", ""),
		},

		WebhookSecret:   getEnv("WEBHOOK_SECRET", ""),
		AuditWebhookURL: getEnv("AUDIT_WEBHOOK_URL", ""),
		IDRemap:         parseRemapEnv(getEnv("ID_REMAP", "")),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// parseRemapEnv parses a "platform:old=new,old2=new2;platform2:..." style
// value into the nested id-remap table used for debugging SevenTV's id
// migration (see cmd/migrate_stv).
func parseRemapEnv(raw string) map[string]map[string]string {
	out := map[string]map[string]string{}
	if raw == "" {
		return out
	}
	for _, platformGroup := range strings.Split(raw, ";") {
		parts := strings.SplitN(platformGroup, ":", 2)
		if len(parts) != 2 {
			continue
		}
		platform, pairs := parts[0], parts[1]
		m := map[string]string{}
		for _, pair := range strings.Split(pairs, ",") {
			kv := strings.SplitN(pair, "=", 2)
			if len(kv) != 2 {
				continue
			}
			m[kv[0]] = kv[1]
		}
		out[platform] = m
	}
	return out
}
