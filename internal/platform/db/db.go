package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Pool bounds the Postgres connection pool. Zero fields take the defaults.
type Pool struct {
	MaxOpen     int
	MaxLifetime time.Duration
}

// Open connects through the pgx stdlib driver; callers import
// github.com/jackc/pgx/v5/stdlib for its side effect.
func Open(ctx context.Context, databaseURL string, pool Pool) (*sql.DB, error) {
	if pool.MaxOpen <= 0 {
		pool.MaxOpen = 10
	}
	if pool.MaxLifetime <= 0 {
		pool.MaxLifetime = 30 * time.Minute
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("openDB: open postgres database: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpen)
	db.SetMaxIdleConns(pool.MaxOpen)
	db.SetConnMaxLifetime(pool.MaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("openDB: verify postgres connection: %w", err)
	}

	return db, nil
}
