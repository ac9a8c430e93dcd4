package cache

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"courier-dispatch-service/internal/ports"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T, ttl time.Duration) (*RedisMatrixCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisMatrixCache(client, ttl), mr
}

func TestRedisMatrixCacheRoundTrip(t *testing.T) {
	c, mr := newRedisCache(t, time.Hour)
	ctx := context.Background()

	ab := ports.PointPair{Origin: "a", Destination: "b"}
	ac := ports.PointPair{Origin: "a", Destination: "c"}
	bc := ports.PointPair{Origin: "b", Destination: "c"}

	require.NoError(t, c.PutMany(ctx, "driving-car", map[ports.PointPair]domain.Leg{
		ab: {DistanceMeters: 1200, DurationSeconds: 180},
		bc: {DistanceMeters: 800, DurationSeconds: 90},
	}))

	assert.Equal(t, "1200:180", mr.HGet("matrix:driving-car:a", "b"))
	assert.Equal(t, time.Hour, mr.TTL("matrix:driving-car:a"))

	got, err := c.GetMany(ctx, "driving-car", []ports.PointPair{ab, ac, bc})
	require.NoError(t, err)
	assert.Equal(t, map[ports.PointPair]domain.Leg{
		ab: {DistanceMeters: 1200, DurationSeconds: 180},
		bc: {DistanceMeters: 800, DurationSeconds: 90},
	}, got)

	other, err := c.GetMany(ctx, "foot-walking", []ports.PointPair{ab})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRedisMatrixCacheExpires(t *testing.T) {
	c, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()

	ab := ports.PointPair{Origin: "a", Destination: "b"}
	require.NoError(t, c.PutMany(ctx, "driving-car", map[ports.PointPair]domain.Leg{ab: {DistanceMeters: 1}}))

	mr.FastForward(2 * time.Minute)

	got, err := c.GetMany(ctx, "driving-car", []ports.PointPair{ab})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisMatrixCacheRejectsMalformedValue(t *testing.T) {
	c, mr := newRedisCache(t, 0)
	mr.HSet("matrix:driving-car:a", "b", "garbage")

	_, err := c.GetMany(context.Background(), "driving-car", []ports.PointPair{{Origin: "a", Destination: "b"}})
	assert.Error(t, err)
}
