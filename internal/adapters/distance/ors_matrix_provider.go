package distance

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"courier-dispatch-service/internal/platform/obs"
	"courier-dispatch-service/internal/ports"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ORSMatrixProvider implements DistanceMatrixProvider using OpenRouteService.
//
// It coordinates:
//   - Vehicle type to routing profile mapping
//   - Persistent per-pair matrix caching
//   - Client-side rate limiting
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSMatrixProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	cache   ports.MatrixCache
	limiter *rate.Limiter
	retry   retryPolicy
}

// NewORSMatrixProvider builds a provider allowing ratePerMinute upstream
// requests; zero or less disables the limit. cache may be nil.
func NewORSMatrixProvider(apiKey string, cache ports.MatrixCache, ratePerMinute int) (*ORSMatrixProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	limit := rate.Inf
	if ratePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(ratePerMinute))
	}

	provider := &ORSMatrixProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		cache:   cache,
		limiter: rate.NewLimiter(limit, 1),
		retry:   defaultRetryPolicy(),
	}

	return provider, nil
}

// Profile maps a single vehicle type to its ORS routing profile.
func Profile(vt domain.VehicleType) (string, error) {
	switch vt {
	case domain.VehicleTaxiEconomy, domain.VehicleTaxiComfort, domain.VehicleCar:
		return "driving-car", nil
	case domain.VehicleBicycle:
		return "cycling-regular", nil
	case domain.VehicleOnFoot:
		return "foot-walking", nil
	default:
		return "", fmt.Errorf("no routing profile for vehicle type %s", vt)
	}
}

// Matrix returns the symmetric leg table over points for vt. Cached pairs are
// served from the cache; any miss triggers one all-to-all ORS request over the
// distinct locations, whose upper triangle is written back.
func (o *ORSMatrixProvider) Matrix(
	ctx context.Context,
	points []domain.Coordinates,
	vt domain.VehicleType,
) (_ *domain.Matrix, err error) {
	defer obs.Time(ctx, "ors.Matrix")(&err)

	if len(points) == 0 {
		return nil, errors.New("ors matrix: points must be non-empty")
	}

	profile, err := Profile(vt)
	if err != nil {
		return nil, fmt.Errorf("ors matrix: %w", err)
	}

	keys := make([]string, len(points))
	for i, p := range points {
		keys[i] = p.Key()
	}

	seen := make(map[ports.PointPair]struct{})
	pairs := make([]ports.PointPair, 0, len(points)*(len(points)-1)/2)
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			if keys[i] == keys[j] {
				continue
			}
			pair := canonicalPair(keys[i], keys[j])
			if _, ok := seen[pair]; ok {
				continue
			}
			seen[pair] = struct{}{}
			pairs = append(pairs, pair)
		}
	}

	legs := make(map[ports.PointPair]domain.Leg, len(pairs))
	// Check persistent matrix cache before issuing external API calls.
	if o.cache != nil && len(pairs) > 0 {
		hits, err := o.cache.GetMany(ctx, profile, pairs)
		if err != nil {
			return nil, fmt.Errorf("ors matrix: get matrix cache: %w", err)
		}
		for k, v := range hits {
			legs[k] = v
		}
	}

	misses := 0
	for _, p := range pairs {
		if _, ok := legs[p]; !ok {
			misses++
		}
	}

	if misses > 0 {
		fetched, err := o.fetchMissing(ctx, profile, points, keys, pairs, legs)
		if err != nil {
			return nil, fmt.Errorf("ors matrix %s: %w", profile, err)
		}

		if o.cache != nil && len(fetched) > 0 {
			if err := o.cache.PutMany(ctx, profile, fetched); err != nil {
				log.Printf("matrix cache write failed: profile=%s pairs=%d err=%v", profile, len(fetched), err)
			}
		}

		for k, v := range fetched {
			legs[k] = v
		}
	}

	m := domain.NewMatrix(vt, points)
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			if keys[i] == keys[j] {
				continue
			}
			m.Set(i, j, legs[canonicalPair(keys[i], keys[j])])
		}
	}

	return m, nil
}

// fetchMissing requests every distinct location at once and returns the legs
// for pairs not already in hits.
func (o *ORSMatrixProvider) fetchMissing(
	ctx context.Context,
	profile string,
	points []domain.Coordinates,
	keys []string,
	pairs []ports.PointPair,
	hits map[ports.PointPair]domain.Leg,
) (map[ports.PointPair]domain.Leg, error) {
	index := make(map[string]int, len(points))
	locations := make([]domain.Coordinates, 0, len(points))
	for i, k := range keys {
		if _, ok := index[k]; ok {
			continue
		}
		index[k] = len(locations)
		locations = append(locations, points[i])
	}

	table, err := o.fetchMatrix(ctx, profile, locations)
	if err != nil {
		return nil, fmt.Errorf("fetching matrix: %w", err)
	}

	fetched := make(map[ports.PointPair]domain.Leg)
	for _, p := range pairs {
		if _, ok := hits[p]; ok {
			continue
		}
		fetched[p] = table[index[p.Origin]][index[p.Destination]]
	}

	return fetched, nil
}

// canonicalPair orders the keys so both directions share one cache entry.
func canonicalPair(a, b string) ports.PointPair {
	if b < a {
		a, b = b, a
	}
	return ports.PointPair{Origin: a, Destination: b}
}
