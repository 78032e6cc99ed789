package store

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq"
)

// DB wraps sqlx.DB to attach the repository methods used throughout the
// dispatcher. A single DB is shared by every component that touches
// Postgres; sqlx.DB is already safe for concurrent use.
type DB struct {
	*sqlx.DB
}

// Open connects to databaseURL and configures the pool the way the rest
// of the process expects: small and short-lived, since most queries here
// are point lookups keyed by channel or reward id.
func Open(databaseURL string) (*DB, error) {
	conn, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: connecting to postgres: %w", err)
	}
	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(20)
	conn.SetConnMaxLifetime(30 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("store: pinging postgres: %w", err)
	}
	return &DB{conn}, nil
}
