package config

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // sqlite driver
)

// SQLiteSQLXInMemoryConfig opens an in-memory SQLite database for the ledger.
// The database lives as long as its only connection, so the pool is pinned to one connection
// that is never recycled. It is gone when the handle is closed.
func SQLiteSQLXInMemoryConfig(ctx context.Context) (*sqlx.DB, error) {
	const pingTimeout = 5 * time.Second

	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		return nil, errors.Wrap(err, "opening in-memory sqlite database")
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		_ = db.Close()
		return nil, errors.Wrap(pingErr, "pinging in-memory sqlite database")
	}

	return db, nil
}
