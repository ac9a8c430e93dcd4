package cache

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"courier-dispatch-service/internal/metrics"
	"courier-dispatch-service/internal/platform/obs"
	"courier-dispatch-service/internal/ports"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLMatrixCache is a Postgres-backed cache of point-to-point legs per routing profile.
type SQLMatrixCache struct {
	DB *sql.DB
}

func NewSQLMatrixCache(db *sql.DB) *SQLMatrixCache {
	return &SQLMatrixCache{DB: db}
}

// Fetch cached legs for the given pairs.
func (s *SQLMatrixCache) GetMany(
	ctx context.Context,
	profile string,
	pairs []ports.PointPair,
) (_ map[ports.PointPair]domain.Leg, err error) {
	defer obs.Time(ctx, "matrix.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("matrix cache: db is nil")
	}

	if profile == "" {
		return nil, errors.New("get matrix cache: profile must not be empty")
	}

	uniq := uniquePairs(pairs)
	if len(uniq) == 0 {
		return map[ports.PointPair]domain.Leg{}, nil
	}

	wanted := make(map[ports.PointPair]struct{}, len(uniq))
	origins := make([]string, 0, len(uniq))
	destinations := make([]string, 0, len(uniq))
	for _, p := range uniq {
		wanted[p] = struct{}{}
		origins = append(origins, p.Origin)
		destinations = append(destinations, p.Destination)
	}

	// The two arrays are zipped into pairs so only requested rows come back.
	q := `
	SELECT c.origin, c.destination, c.distance_meters, c.duration_seconds
    FROM matrix_cache c
    JOIN unnest($2::text[], $3::text[]) AS p(origin, destination)
        ON c.origin = p.origin AND c.destination = p.destination
    WHERE c.profile = $1;
	`

	rows, err := s.DB.QueryContext(ctx, q, profile, origins, destinations)
	if err != nil {
		return nil, fmt.Errorf("get matrix cache: query matrix_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[ports.PointPair]domain.Leg, len(uniq))
	for rows.Next() {
		var p ports.PointPair
		var leg domain.Leg
		if err := rows.Scan(&p.Origin, &p.Destination, &leg.DistanceMeters, &leg.DurationSeconds); err != nil {
			return nil, fmt.Errorf("get matrix cache: scan rows: %w", err)
		}
		if _, ok := wanted[p]; ok {
			out[p] = leg
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get matrix cache: row iteration: %w", err)
	}

	metrics.MatrixCacheLookups.WithLabelValues("postgres", "hit").Add(float64(len(out)))
	metrics.MatrixCacheLookups.WithLabelValues("postgres", "miss").Add(float64(len(uniq) - len(out)))

	return out, nil
}

// Store legs for the given profile.
func (s *SQLMatrixCache) PutMany(ctx context.Context, profile string, legs map[ports.PointPair]domain.Leg) (err error) {
	defer obs.Time(ctx, "matrix.cache.PutMany")(&err)

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
	INSERT INTO matrix_cache (
        profile,
        origin,
        destination,
        distance_meters,
        duration_seconds
    )
    VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (profile, origin, destination) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds,
		updated_at = now();
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
