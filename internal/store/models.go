// Package store persists the tables named in spec.md §6 behind
// repository types built on sqlx + lib/pq, mirroring the teacher's
// preference for small typed request/response structs over a generic ORM.
package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Platform identifies one of the three independent emote providers.
type Platform string

const (
	PlatformBTTV    Platform = "bttv"
	PlatformFFZ     Platform = "ffz"
	PlatformSevenTV Platform = "seventv"
)

// RewardKind tags the variant stored in Reward.Data.
type RewardKind string

const (
	RewardTimeout       RewardKind = "timeout"
	RewardSubscriberMode RewardKind = "subscriber_mode"
	RewardEmoteOnlyMode RewardKind = "emote_only_mode"
	RewardSwap          RewardKind = "swap"
	RewardSlot          RewardKind = "slot"
	RewardRemoveEmote   RewardKind = "remove_emote"
	RewardMusicSkip     RewardKind = "music_skip"
	RewardMusicQueue    RewardKind = "music_queue"
	RewardMusicPlay     RewardKind = "music_play"
)

// RewardConfig is the tagged union described in spec.md §3. At most one
// of the pointer fields other than Kind is non-nil, selected by Kind;
// kinds without a config (music_skip) leave all of them nil.
type RewardConfig struct {
	Kind RewardKind `json:"kind"`

	Timeout       *TimeoutConfig `json:"timeout,omitempty"`
	TimedMode     *TimedModeConfig `json:"timed_mode,omitempty"`
	Swap          *SwapConfig    `json:"swap,omitempty"`
	Slot          *SlotConfig    `json:"slot,omitempty"`
	RemoveEmote   *RemoveEmoteConfig `json:"remove_emote,omitempty"`
	MusicQueue    *MusicQueueConfig `json:"music_queue,omitempty"`
	MusicPlay     *MusicQueueConfig `json:"music_play,omitempty"`
}

// Value/Scan make RewardConfig usable as a JSONB column via sqlx, the
// idiomatic equivalent of the original's `Json<RewardData>` sqlx wrapper.
func (c RewardConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *RewardConfig) Scan(src interface{}) error {
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	case nil:
		return nil
	default:
		return fmt.Errorf("store: cannot scan %T into RewardConfig", src)
	}
	return json.Unmarshal(b, c)
}

// TimeoutConfig is spec.md §3's `Timeout{duration,spare_vips}`.
type TimeoutConfig struct {
	Duration   string `json:"duration"` // literal duration or "rand(a;b)"
	SpareVIPs  bool   `json:"spare_vips"`
}

// TimedModeConfig covers both SubscriberMode{duration} and
// EmoteOnlyMode{duration}; RewardKind distinguishes the two.
type TimedModeConfig struct {
	Duration string `json:"duration"`
}

// SwapConfig is spec.md §3's `Swap{platform, limit?, allow_unlisted, reply_on_success}`.
type SwapConfig struct {
	Platform       Platform `json:"platform"`
	Limit          *int     `json:"limit,omitempty"`
	AllowUnlisted  bool     `json:"allow_unlisted"`
	ReplyOnSuccess bool     `json:"reply_on_success"`
}

// SlotConfig is spec.md §3's `Slot{platform, slots, expiration, allow_unlisted, reply_on_success}`.
type SlotConfig struct {
	Platform       Platform      `json:"platform"`
	Slots          int           `json:"slots"` // 1..100
	Expiration     time.Duration `json:"expiration"`
	AllowUnlisted  bool          `json:"allow_unlisted"`
	ReplyOnSuccess bool          `json:"reply_on_success"`
}

// RemoveEmoteConfig is spec.md §3's `RemoveEmote{platform, reply_on_success}`.
type RemoveEmoteConfig struct {
	Platform       Platform `json:"platform"`
	ReplyOnSuccess bool     `json:"reply_on_success"`
}

// MusicQueueConfig covers MusicQueue{allow_explicit} and MusicPlay{allow_explicit}.
type MusicQueueConfig struct {
	AllowExplicit bool `json:"allow_explicit"`
	OnlyWhileLive bool `json:"only_while_live"`
}

// Reward is spec.md §3's Reward row.
type Reward struct {
	ID         string       `db:"id"`
	ChannelID  string       `db:"channel_id"`
	Data       RewardConfig `db:"data"`
	LiveDelay  *time.Duration `db:"live_delay"`
	AutoAccept bool         `db:"auto_accept"`
	IsPaused   bool         `db:"is_paused"`
	UnpauseAt  *time.Time   `db:"unpause_at"`
}

// Slot is spec.md §3's Slot row. The five nullable fields are null
// together (empty slot) or non-null together (occupied slot).
type Slot struct {
	ID        int64      `db:"id"`
	ChannelID string     `db:"channel_id"`
	RewardID  string     `db:"reward_id"`
	Platform  Platform   `db:"platform"`
	EmoteID   *string    `db:"emote_id"`
	Name      *string    `db:"name"`
	ExpiresAt *time.Time `db:"expires_at"`
	AddedBy   *string    `db:"added_by"`
	AddedAt   *time.Time `db:"added_at"`
}

// Occupied reports whether the slot currently holds an emote.
func (s Slot) Occupied() bool {
	return s.EmoteID != nil
}

// SwapEmote is spec.md §3's SwapEmote row.
type SwapEmote struct {
	ID        int64     `db:"id"`
	ChannelID string    `db:"channel_id"`
	Platform  Platform  `db:"platform"`
	EmoteID   string    `db:"emote_id"`
	Name      string    `db:"name"`
	AddedBy   string    `db:"added_by"`
	AddedAt   time.Time `db:"added_at"`
	RewardID  string    `db:"reward_id"`
}

// BannedEmote is spec.md §3's BannedEmote row.
type BannedEmote struct {
	ChannelID string   `db:"channel_id"`
	Platform  Platform `db:"platform"`
	EmoteID   string   `db:"emote_id"`
}

// Timeout is spec.md §3's moderator-timeout record.
type Timeout struct {
	ChannelID string    `db:"channel_id"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
}

// CredentialKind distinguishes the three subjects the credential store
// tracks (spec.md §3).
type CredentialKind string

const (
	CredentialStreamer CredentialKind = "streamer"
	CredentialMusic    CredentialKind = "music"
	CredentialBot      CredentialKind = "bot"
)

// Credential is spec.md §3's Credential row.
type Credential struct {
	SubjectKind  CredentialKind `db:"subject_kind"`
	SubjectID    string         `db:"subject_id"`
	AccessToken  string         `db:"access_token"`
	RefreshToken string         `db:"refresh_token"`
	Scopes       []string       `db:"-"`
	ScopesRaw    string         `db:"scopes"`
	ExpiresAt    time.Time      `db:"expires_at"`
	Broken       bool           `db:"broken"`
}

// TimedModeKind distinguishes subscriber-only from emote-only timed modes.
type TimedModeKind string

const (
	TimedModeSubscriber TimedModeKind = "subscriber"
	TimedModeEmoteOnly  TimedModeKind = "emote_only"
)

// TimedModeRow is spec.md §3's TimedMode row. Rows are written when a
// timed mode starts and deleted when its turn-off fires; nothing reads
// them back at startup.
type TimedModeRow struct {
	ID        int64         `db:"id"`
	ChannelID string        `db:"channel_id"`
	Kind      TimedModeKind `db:"kind"`
	EndTS     time.Time     `db:"end_ts"`
}

// LogEntry is one row of the per-channel event log (spec.md "Non-goals":
// "does not persist historical analytics beyond a per-channel event log").
type LogEntry struct {
	ID        string    `db:"id"`
	ChannelID string    `db:"channel_id"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}
