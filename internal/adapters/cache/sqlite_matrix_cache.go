package cache

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"courier-dispatch-service/internal/metrics"
	"courier-dispatch-service/internal/ports"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// sqliteChunk keeps each lookup well under SQLite's bound-variable limit.
const sqliteChunk = 400

// SQLite backed cache of point-to-point legs per routing profile.
// Keys are expected to be consistent (e.g., Coordinates.Key) by the caller.
type SqliteMatrixCache struct {
	DB *sql.DB
}

func NewSqliteMatrixCache(db *sql.DB) *SqliteMatrixCache {
	return &SqliteMatrixCache{DB: db}
}

// Fetch cached legs for the given pairs.
func (s *SqliteMatrixCache) GetMany(
	ctx context.Context,
	profile string,
	pairs []ports.PointPair,
) (map[ports.PointPair]domain.Leg, error) {
	if s.DB == nil {
		return nil, errors.New("matrix cache: db is nil")
	}

	if profile == "" {
		return nil, errors.New("get matrix cache: profile must not be empty")
	}

	uniq := uniquePairs(pairs)
	out := make(map[ports.PointPair]domain.Leg, len(uniq))

	for start := 0; start < len(uniq); start += sqliteChunk {
		chunk := uniq[start:min(start+sqliteChunk, len(uniq))]

		ph := make([]string, 0, len(chunk))
		args := make([]any, 0, 1+2*len(chunk))
		args = append(args, profile)
		for _, p := range chunk {
			ph = append(ph, "(?, ?)")
			args = append(args, p.Origin, p.Destination)
		}

		// SQLite does not support binding slices directly in an IN (...) clause.
		// Only the placeholder structure is interpolated; all values remain parameterized.
		q := fmt.Sprintf(`
		SELECT
            origin,
            destination,
            distance_meters,
            duration_seconds
        FROM matrix_cache
        WHERE profile = ?
            AND (origin, destination) IN (VALUES %s);
		`, strings.Join(ph, ","))

		if err := s.scanInto(ctx, out, q, args...); err != nil {
			return nil, err
		}
	}

	metrics.MatrixCacheLookups.WithLabelValues("sqlite", "hit").Add(float64(len(out)))
	metrics.MatrixCacheLookups.WithLabelValues("sqlite", "miss").Add(float64(len(uniq) - len(out)))

	return out, nil
}

func (s *SqliteMatrixCache) scanInto(ctx context.Context, out map[ports.PointPair]domain.Leg, q string, args ...any) error {
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("get matrix cache: query matrix_cache table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p ports.PointPair
		var leg domain.Leg
		if err := rows.Scan(&p.Origin, &p.Destination, &leg.DistanceMeters, &leg.DurationSeconds); err != nil {
			return fmt.Errorf("get matrix cache: scan rows: %w", err)
		}
		out[p] = leg
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("get matrix cache: row iteration: %w", err)
	}
	return nil
}

// Store legs for the given profile.
func (s *SqliteMatrixCache) PutMany(ctx context.Context, profile string, legs map[ports.PointPair]domain.Leg) error {
	if s.DB == nil {
		return errors.New("matrix cache: db is nil")
	}

	if profile == "" {
		return errors.New("insert matrix cache: profile must not be empty")
	}

	if len(legs) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert matrix cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO matrix_cache (
        profile,
        origin,
        destination,
        distance_meters,
        duration_seconds
    )
    VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("insert matrix cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for p, leg := range legs {
		if strings.TrimSpace(p.Origin) == "" || strings.TrimSpace(p.Destination) == "" {
			return fmt.Errorf("insert matrix cache: empty pair key")
		}

		if _, err := stmt.ExecContext(ctx, profile, p.Origin, p.Destination, leg.DistanceMeters, leg.DurationSeconds); err != nil {
			return fmt.Errorf("insert matrix cache pair=%s->%s: %w", p.Origin, p.Destination, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert matrix cache commit: %w", err)
	}

	return nil
}
