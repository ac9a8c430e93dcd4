package ports

import (
	"context"
	"courier-dispatch-service/internal/domain"
)

// PointPair identifies one directed leg by the points' cache keys.
type PointPair struct {
	Origin      string
	Destination string
}

// Port: persistent cache of matrix legs, partitioned by routing profile.
type MatrixCache interface {
	// Fetch cached legs; pairs missing from the result are cache misses.
	GetMany(ctx context.Context, profile string, pairs []PointPair) (map[PointPair]domain.Leg, error)
	// Store legs for later lookups.
	PutMany(ctx context.Context, profile string, legs map[PointPair]domain.Leg) error
}
