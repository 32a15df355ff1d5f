package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers the "postgres" driver used by sqlx.Open below

	"github.com/domainauction/biddingengine/internal/persistence"
)

// ConnConfig holds the pool settings for a history-store connection,
// continuing the teacher's db.Config defaults (internal/infrastructure/db/connection.go).
type ConnConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
}

// DefaultConnConfig mirrors the teacher's DefaultConfig pool sizing.
func DefaultConnConfig(dsn string) ConnConfig {
	return ConnConfig{
		DSN:             dsn,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		QueryTimeout:    5 * time.Second,
	}
}

// Open connects to Postgres and returns a ready-to-use HistoryStore backed
// by it.
func Open(ctx context.Context, cfg ConnConfig) (persistence.HistoryStore, *sqlx.DB, error) {
	if cfg.DSN == "" {
		return nil, nil, fmt.Errorf("postgres: DSN is required")
	}
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return NewHistoryRepo(db, cfg.QueryTimeout), db, nil
}
