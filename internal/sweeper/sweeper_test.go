package sweeper

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

type fakeCache struct {
	sets int
}

func (f *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	f.sets++
}

func TestTick_ClearsExpiredSlotAndUnpausesReward(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer mockDB.Close()

	db := &store.DB{DB: sqlx.NewDb(mockDB, "postgres")}

	name := "PogU"
	emoteID := "e1"
	rows := sqlmock.NewRows([]string{"id", "channel_id", "reward_id", "platform", "emote_id", "name", "expires_at", "added_by", "added_at"}).
		AddRow(int64(1), "chan1", "reward1", store.PlatformBTTV, emoteID, name, time.Now(), "user1", time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, channel_id, reward_id, platform, emote_id, name, expires_at, added_by, added_at")).
		WillReturnRows(rows)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE slots SET emote_id = NULL")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE rewards SET is_paused = $1, unpause_at = $2 WHERE id = $3")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	cache := &fakeCache{}
	s := New(db, nil, cache, zerolog.Nop())

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if cache.sets != 1 {
		t.Errorf("expected one cache write for the expired-slot snapshot, got %d", cache.sets)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
