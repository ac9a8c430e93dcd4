package db

import (
	"context"
	"database/sql"
	"fmt"
)

// InitMatrixCacheSchema creates the shared Postgres travel-leg cache.
// Legs are stored once per unordered point pair, keyed by routing profile.
func InitMatrixCacheSchema(ctx context.Context, db *sql.DB) error {
	stmt := `
	CREATE TABLE IF NOT EXISTS matrix_cache (
		profile TEXT NOT NULL,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		distance_meters INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (profile, origin, destination)
	);

	CREATE INDEX IF NOT EXISTS idx_matrix_cache_updated_at
	ON matrix_cache(updated_at);
	`

	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("init matrix cache schema: %w", err)
	}
	return nil
}

// PruneMatrixCache drops legs not refreshed within the given number of days.
func PruneMatrixCache(ctx context.Context, db *sql.DB, olderThanDays int) (int64, error) {
	res, err := db.ExecContext(ctx, `
	DELETE FROM matrix_cache
	WHERE updated_at < now() - make_interval(days => $1);
	`, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("prune matrix cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune matrix cache: rows affected: %w", err)
	}
	return n, nil
}
