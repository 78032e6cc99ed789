package livescheduler

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/nerix-tools/redemptiond/internal/store"
)

type fakePauser struct {
	calls []bool
}

func (f *fakePauser) SetRewardPaused(ctx context.Context, broadcasterID, rewardID string, paused bool) error {
	f.calls = append(f.calls, paused)
	return nil
}

type fakeAnnouncer struct {
	messages []string
}

func (f *fakeAnnouncer) Announce(ctx context.Context, channelID, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

func TestHandleOnline_PausesLiveDelayRewards(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer mockDB.Close()
	db := &store.DB{DB: sqlx.NewDb(mockDB, "postgres")}

	delay := 5 * time.Minute
	rows := sqlmock.NewRows([]string{"id", "channel_id", "data", "live_delay", "auto_accept", "is_paused", "unpause_at"}).
		AddRow("r1", "chan1", []byte(`{"kind":"music_skip"}`), delay, true, false, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, channel_id, data, live_delay, auto_accept, is_paused, unpause_at")).
		WithArgs("chan1").
		WillReturnRows(rows)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE rewards SET is_paused = $1, unpause_at = $2 WHERE id = $3")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	pauser := &fakePauser{}
	announcer := &fakeAnnouncer{}
	s := New(db, pauser, announcer, zerolog.Nop())

	if err := s.HandleOnline(context.Background(), OnlineEvent{ChannelID: "chan1", StartedAt: time.Now()}); err != nil {
		t.Fatalf("HandleOnline: %v", err)
	}
	if len(pauser.calls) != 1 || !pauser.calls[0] {
		t.Fatalf("expected exactly one pause call, got %+v", pauser.calls)
	}
	if len(announcer.messages) != 1 {
		t.Fatalf("expected one announcement, got %+v", announcer.messages)
	}

	s.cancelTimer("r1")
}

func TestHandleOffline_UnpausesImmediately(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer mockDB.Close()
	db := &store.DB{DB: sqlx.NewDb(mockDB, "postgres")}

	unpauseAt := time.Now().Add(time.Minute)
	rows := sqlmock.NewRows([]string{"id", "channel_id", "data", "live_delay", "auto_accept", "is_paused", "unpause_at"}).
		AddRow("r1", "chan1", []byte(`{"kind":"music_skip"}`), nil, true, true, unpauseAt)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, channel_id, data, live_delay, auto_accept, is_paused, unpause_at")).
		WithArgs("chan1").
		WillReturnRows(rows)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE rewards SET is_paused = $1, unpause_at = $2 WHERE id = $3")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	pauser := &fakePauser{}
	s := New(db, pauser, nil, zerolog.Nop())

	if err := s.HandleOffline(context.Background(), OfflineEvent{ChannelID: "chan1"}); err != nil {
		t.Fatalf("HandleOffline: %v", err)
	}
	if len(pauser.calls) != 1 || pauser.calls[0] {
		t.Fatalf("expected exactly one unpause call, got %+v", pauser.calls)
	}
}
