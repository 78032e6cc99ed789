// Command setup provides the onboarding operations an operator runs by
// hand: registering a channel and exchanging an OAuth authorization
// code for a stored credential.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerix-tools/redemptiond/internal/config"
	"github.com/nerix-tools/redemptiond/internal/credstore"
	"github.com/nerix-tools/redemptiond/internal/musicprovider"
	"github.com/nerix-tools/redemptiond/internal/platform"
	"github.com/nerix-tools/redemptiond/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:   "setup",
		Short: "Onboard a channel and its OAuth credentials",
	}
	root.AddCommand(newChannelAddCmd(), newCredentialBootstrapCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newChannelAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "channel-add <id> <login>",
		Short: "Register a channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			db, err := store.Open(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer db.Close()

			if err := db.UpsertChannel(args[0], args[1]); err != nil {
				return fmt.Errorf("registering channel: %w", err)
			}
			fmt.Printf("registered channel %s (%s)\n", args[1], args[0])
			return nil
		},
	}
}

func newCredentialBootstrapCmd() *cobra.Command {
	var kind, subjectID, code, redirectURI string

	cmd := &cobra.Command{
		Use:   "credential-bootstrap",
		Short: "Exchange an OAuth authorization code and store the resulting credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			subjectKind := store.CredentialKind(kind)
			authClient, err := authClientForKind(cfg, subjectKind)
			if err != nil {
				return err
			}

			token, err := authClient.ExchangeCode(context.Background(), code, redirectURI)
			if err != nil {
				return fmt.Errorf("exchanging code: %w", err)
			}

			db, err := store.Open(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer db.Close()

			creds := credstore.NewDBStore(db)
			if err := creds.Save(credstore.Credential{
				SubjectKind:  subjectKind,
				SubjectID:    subjectID,
				AccessToken:  token.AccessToken,
				RefreshToken: token.RefreshToken,
				Scopes:       token.Scope,
				ExpiresAt:    token.ExpiresAt,
			}); err != nil {
				return fmt.Errorf("saving credential: %w", err)
			}
			fmt.Printf("stored %s credential for %s\n", kind, subjectID)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "credential kind: streamer, bot, or music")
	cmd.Flags().StringVar(&subjectID, "subject", "", "subject id the credential belongs to")
	cmd.Flags().StringVar(&code, "code", "", "authorization code from the OAuth redirect")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "redirect URI used to obtain the code")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("redirect-uri")

	return cmd
}

// authClientForKind picks the OAuth app credentials and token endpoint
// matching subjectKind: streamer and bot both authenticate against the
// streaming platform; music authenticates against the music provider.
func authClientForKind(cfg *config.Config, kind store.CredentialKind) (*platform.AuthClient, error) {
	switch kind {
	case store.CredentialStreamer, store.CredentialBot:
		return platform.NewAuthClient(platform.AuthConfig{
			ClientID:     cfg.Platform.ClientID,
			ClientSecret: cfg.Platform.ClientSecret,
			TokenURL:     platform.DefaultTokenURL,
		}), nil
	case store.CredentialMusic:
		return platform.NewAuthClient(platform.AuthConfig{
			ClientID:     cfg.MusicProvider.ClientID,
			ClientSecret: cfg.MusicProvider.ClientSecret,
			TokenURL:     musicprovider.DefaultTokenURL,
		}), nil
	default:
		return nil, fmt.Errorf("setup: unknown credential kind %q", kind)
	}
}
