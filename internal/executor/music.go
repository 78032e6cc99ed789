package executor

import (
	"context"
	"fmt"

	"github.com/nerix-tools/redemptiond/internal/musicprovider"
	"github.com/nerix-tools/redemptiond/internal/store"
)

// resolveTrack implements spec.md §4.4.6's extraction rule: a 22+
// character alphanumeric token is looked up by id, anything else is
// treated as a search query and the first result respecting
// allowExplicit is picked.
func resolveTrack(ctx context.Context, deps Deps, accessToken, input string, allowExplicit bool) (*musicprovider.Track, error) {
	if isTrackID(input) {
		track, err := deps.MusicProvider.GetTrack(ctx, accessToken, input)
		if err != nil {
			return nil, err
		}
		if track.Explicit && !allowExplicit {
			return nil, fmt.Errorf("executor: track is explicit and not allowed")
		}
		return track, nil
	}

	results, err := deps.MusicProvider.SearchTrack(ctx, accessToken, input)
	if err != nil {
		return nil, err
	}
	for _, t := range results {
		if allowExplicit || !t.Explicit {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("executor: no matching track found")
}

// musicAccessToken fetches the broadcaster's music-provider credential
// and, when cfg requires it, rejects redemption while the channel is
// offline.
func musicAccessToken(ctx context.Context, r Redemption, deps Deps, onlyWhileLive bool) (string, *Outcome) {
	if onlyWhileLive {
		channel, err := deps.DB.GetChannel(r.ChannelID)
		if err != nil {
			o := fail("could not check live state")
			return "", &o
		}
		if channel == nil || !channel.IsLive {
			o := fail("this can only be redeemed while the channel is live")
			return "", &o
		}
	}

	cred, err := deps.Credentials.Get(store.CredentialMusic, r.ChannelID)
	if err != nil {
		o := fail("no music provider is connected for this channel")
		return "", &o
	}
	return cred.AccessToken, nil
}

// ExecuteMusicSkip implements spec.md §4.4.6's skip variant.
func ExecuteMusicSkip(ctx context.Context, r Redemption, deps Deps) (Outcome, error) {
	token, failure := musicAccessToken(ctx, r, deps, false)
	if failure != nil {
		return *failure, nil
	}

	player, err := deps.MusicProvider.GetPlayer(ctx, token)
	if err != nil {
		return Outcome{}, err
	}
	if !player.IsPlaying {
		return fail("nothing is currently playing"), nil
	}

	if err := deps.MusicProvider.SkipNext(ctx, token); err != nil {
		return fail("could not skip: " + err.Error()), nil
	}
	return ok("skipped " + player.ItemName), nil
}

// ExecuteMusicQueue implements spec.md §4.4.6's queue variant.
func ExecuteMusicQueue(ctx context.Context, r Redemption, cfg store.MusicQueueConfig, deps Deps) (Outcome, error) {
	token, failure := musicAccessToken(ctx, r, deps, cfg.OnlyWhileLive)
	if failure != nil {
		return *failure, nil
	}

	player, err := deps.MusicProvider.GetPlayer(ctx, token)
	if err != nil {
		return Outcome{}, err
	}
	if !player.IsPlaying {
		return fail("nothing is currently playing"), nil
	}

	track, err := resolveTrack(ctx, deps, token, r.UserInput, cfg.AllowExplicit)
	if err != nil {
		return fail(err.Error()), nil
	}

	if err := deps.MusicProvider.QueueTrack(ctx, token, track.URI); err != nil {
		return fail("could not queue: " + err.Error()), nil
	}
	return ok("queued " + track.String()), nil
}

// ExecuteMusicPlay implements spec.md §4.4.6's play variant.
func ExecuteMusicPlay(ctx context.Context, r Redemption, cfg store.MusicQueueConfig, deps Deps) (Outcome, error) {
	token, failure := musicAccessToken(ctx, r, deps, cfg.OnlyWhileLive)
	if failure != nil {
		return *failure, nil
	}

	player, err := deps.MusicProvider.GetPlayer(ctx, token)
	if err != nil {
		return Outcome{}, err
	}
	if !player.IsPlaying {
		return fail("nothing is currently playing"), nil
	}

	track, err := resolveTrack(ctx, deps, token, r.UserInput, cfg.AllowExplicit)
	if err != nil {
		return fail(err.Error()), nil
	}

	if err := deps.MusicProvider.PlayTrack(ctx, token, track.URI); err != nil {
		return fail("could not play: " + err.Error()), nil
	}
	return ok("now playing " + track.String()), nil
}
