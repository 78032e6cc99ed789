package chatcmd

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/nerix-tools/redemptiond/internal/reload"
	"github.com/nerix-tools/redemptiond/internal/store"
)

type fakeSink struct {
	lines []string
}

func (f *fakeSink) SendLine(ctx context.Context, channelLogin, message string) error {
	f.lines = append(f.lines, message)
	return nil
}
func (f *fakeSink) Reply(ctx context.Context, channelLogin, parentMessageID, message string) error {
	return nil
}
func (f *fakeSink) SendWhisper(ctx context.Context, toUser, message string) error { return nil }

func TestHandle_PingRepliesToAnyone(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer mockDB.Close()
	db := &store.DB{DB: sqlx.NewDb(mockDB, "postgres")}

	chat := &fakeSink{}
	r := New("::", db, reload.New(db, nil, nil, nil, zerolog.Nop()), chat, zerolog.Nop())

	msg := Message{ChannelID: "chan1", ChannelLogin: "chan1", UserID: "viewer1", Text: "::ping"}
	if err := r.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(chat.lines) != 1 || chat.lines[0] != "pong" {
		t.Fatalf("expected a pong reply, got %+v", chat.lines)
	}
}

func TestHandle_ReloadRequiresEditorPermission(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer mockDB.Close()
	db := &store.DB{DB: sqlx.NewDb(mockDB, "postgres")}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM editors WHERE channel_id = $1 AND user_id = $2)")).
		WithArgs("chan1", "viewer1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	chat := &fakeSink{}
	r := New("::", db, reload.New(db, nil, nil, nil, zerolog.Nop()), chat, zerolog.Nop())

	msg := Message{ChannelID: "chan1", ChannelLogin: "chan1", UserID: "viewer1", Text: "::reload"}
	if err := r.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(chat.lines) != 0 {
		t.Fatalf("expected no reply for an unauthorized reload, got %+v", chat.lines)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
