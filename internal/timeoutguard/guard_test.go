package timeoutguard

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/nerix-tools/redemptiond/internal/store"
)

func newMockGuard(t *testing.T) (*Guard, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	db := &store.DB{DB: sqlx.NewDb(mockDB, "postgres")}
	return New(db, zerolog.Nop()), mock
}

func TestOnChannelEvent_ShortDurationDeletes(t *testing.T) {
	g, mock := newMockGuard(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timeouts")).
		WithArgs("chan1", "user1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := g.OnChannelEvent("chan1", "user1", 10*time.Second); err != nil {
		t.Fatalf("OnChannelEvent: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOnChannelEvent_LongDurationUpserts(t *testing.T) {
	g, mock := newMockGuard(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timeouts")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := g.OnChannelEvent("chan1", "user1", 5*time.Minute); err != nil {
		t.Fatalf("OnChannelEvent: %v", err)
	}
}

func TestIsOverridable_NoRowIsOverridable(t *testing.T) {
	g, mock := newMockGuard(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT channel_id, user_id, expires_at FROM timeouts")).
		WithArgs("chan1", "user1").
		WillReturnRows(sqlmock.NewRows(nil))

	ok, err := g.IsOverridable("chan1", "user1")
	if err != nil {
		t.Fatalf("IsOverridable: %v", err)
	}
	if !ok {
		t.Fatal("expected no row to be overridable")
	}
}

func TestIsOverridable_ActiveRowBlocksOverride(t *testing.T) {
	g, mock := newMockGuard(t)

	rows := sqlmock.NewRows([]string{"channel_id", "user_id", "expires_at"}).
		AddRow("chan1", "user1", time.Now().Add(time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT channel_id, user_id, expires_at FROM timeouts")).
		WithArgs("chan1", "user1").
		WillReturnRows(rows)

	ok, err := g.IsOverridable("chan1", "user1")
	if err != nil {
		t.Fatalf("IsOverridable: %v", err)
	}
	if ok {
		t.Fatal("expected active row to block override")
	}
}
