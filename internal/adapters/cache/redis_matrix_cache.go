package cache

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"courier-dispatch-service/internal/metrics"
	"courier-dispatch-service/internal/platform/obs"
	"courier-dispatch-service/internal/ports"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisMatrixCache keeps one hash per profile and origin, keyed by destination.
// Values are encoded as "meters:seconds".
type RedisMatrixCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMatrixCache returns a cache whose entries expire after ttl; zero keeps them forever.
func NewRedisMatrixCache(client *redis.Client, ttl time.Duration) *RedisMatrixCache {
	return &RedisMatrixCache{client: client, ttl: ttl}
}

func matrixKey(profile, origin string) string {
	return "matrix:" + profile + ":" + origin
}

func (r *RedisMatrixCache) GetMany(
	ctx context.Context,
	profile string,
	pairs []ports.PointPair,
) (_ map[ports.PointPair]domain.Leg, err error) {
	defer obs.Time(ctx, "matrix.redis.GetMany")(&err)

	if r.client == nil {
		return nil, errors.New("matrix cache: redis client is nil")
	}
	if profile == "" {
		return nil, errors.New("get matrix cache: profile must not be empty")
	}

	uniq := uniquePairs(pairs)
	if len(uniq) == 0 {
		return map[ports.PointPair]domain.Leg{}, nil
	}

	byOrigin := make(map[string][]string)
	origins := make([]string, 0)
	for _, p := range uniq {
		if _, ok := byOrigin[p.Origin]; !ok {
			origins = append(origins, p.Origin)
		}
		byOrigin[p.Origin] = append(byOrigin[p.Origin], p.Destination)
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.SliceCmd, len(origins))
	for i, origin := range origins {
		cmds[i] = pipe.HMGet(ctx, matrixKey(profile, origin), byOrigin[origin]...)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get matrix cache: redis pipeline: %w", err)
	}

	out := make(map[ports.PointPair]domain.Leg, len(uniq))
	for i, origin := range origins {
		vals, err := cmds[i].Result()
		if err != nil {
			return nil, fmt.Errorf("get matrix cache: hmget %s: %w", origin, err)
		}

		for j, v := range vals {
			s, ok := v.(string)
			if !ok {
				continue
			}
			leg, err := decodeLeg(s)
			if err != nil {
				return nil, fmt.Errorf("get matrix cache: %s->%s: %w", origin, byOrigin[origin][j], err)
			}
			out[ports.PointPair{Origin: origin, Destination: byOrigin[origin][j]}] = leg
		}
	}

	metrics.MatrixCacheLookups.WithLabelValues("redis", "hit").Add(float64(len(out)))
	metrics.MatrixCacheLookups.WithLabelValues("redis", "miss").Add(float64(len(uniq) - len(out)))

	return out, nil
}

func (r *RedisMatrixCache) PutMany(ctx context.Context, profile string, legs map[ports.PointPair]domain.Leg) (err error) {
	defer obs.Time(ctx, "matrix.redis.PutMany")(&err)

	if r.client == nil {
		return errors.New("matrix cache: redis client is nil")
	}
	if profile == "" {
		return errors.New("insert matrix cache: profile must not be empty")
	}
	if len(legs) == 0 {
		return nil
	}

	fields := make(map[string][]any)
	for p, leg := range legs {
		if strings.TrimSpace(p.Origin) == "" || strings.TrimSpace(p.Destination) == "" {
			return fmt.Errorf("insert matrix cache: empty pair key")
		}
		fields[p.Origin] = append(fields[p.Origin], p.Destination, encodeLeg(leg))
	}

	pipe := r.client.TxPipeline()
	for origin, values := range fields {
		key := matrixKey(profile, origin)
		pipe.HSet(ctx, key, values...)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert matrix cache: redis pipeline: %w", err)
	}

	return nil
}

func encodeLeg(leg domain.Leg) string {
	return strconv.Itoa(leg.DistanceMeters) + ":" + strconv.Itoa(leg.DurationSeconds)
}

func decodeLeg(s string) (domain.Leg, error) {
	meters, seconds, ok := strings.Cut(s, ":")
	if !ok {
		return domain.Leg{}, fmt.Errorf("malformed leg %q", s)
	}
	m, err := strconv.Atoi(meters)
	if err != nil {
		return domain.Leg{}, fmt.Errorf("malformed leg distance %q: %w", s, err)
	}
	sec, err := strconv.Atoi(seconds)
	if err != nil {
		return domain.Leg{}, fmt.Errorf("malformed leg duration %q: %w", s, err)
	}
	return domain.Leg{DistanceMeters: m, DurationSeconds: sec}, nil
}
