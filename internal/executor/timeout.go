package executor

import (
	"context"
	"time"

	"github.com/nerix-tools/redemptiond/internal/platform"
	"github.com/nerix-tools/redemptiond/internal/store"
)

// ExecuteTimeout implements spec.md §4.4.1.
func ExecuteTimeout(ctx context.Context, r Redemption, cfg store.TimeoutConfig, deps Deps) (Outcome, error) {
	targetLogin, err := parseTargetUser(r.UserInput)
	if err != nil {
		return fail("could not parse a target user"), nil
	}

	users, err := deps.Platform.GetUsers(ctx, nil, []string{targetLogin})
	if err != nil {
		return Outcome{}, err
	}
	if len(users.Data) == 0 {
		return fail("target user not found"), nil
	}
	target := users.Data[0]

	duration, err := parseDuration(cfg.Duration)
	if err != nil {
		return fail("invalid timeout duration configured"), nil
	}

	if cfg.SpareVIPs {
		isVIP, err := deps.Platform.IsVIP(ctx, r.ChannelID, target.ID)
		if err != nil {
			return Outcome{}, err
		}
		if isVIP {
			return fail(target.DisplayName + " is a VIP and is spared from this redemption"), nil
		}
	}

	overridable, err := deps.Guard.IsOverridable(r.ChannelID, target.ID)
	if err != nil {
		return Outcome{}, err
	}
	if !overridable {
		return fail(target.DisplayName + " is already timed out by a moderator"), nil
	}

	if err := deps.Guard.OnChannelEvent(r.ChannelID, target.ID, duration); err != nil {
		return Outcome{}, err
	}

	_, err = deps.Platform.TimeoutUser(ctx, platform.TimeoutUserParams{
		BroadcasterID: r.ChannelID,
		ModeratorID:   r.ChannelID,
		UserID:        target.ID,
		Duration:      int(duration / time.Second),
		Reason:        "channel points redemption",
	})
	if err != nil {
		return fail("the platform rejected the timeout"), nil
	}

	return ok("timed out " + target.DisplayName), nil
}
