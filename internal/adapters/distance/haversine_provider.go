package distance

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"fmt"
	"math"
)

// Earth radius in meters.
const earthRadius = 6371000.0

// circuity scales straight-line distance to an approximate street distance.
const circuity = 1.3

// AverageSpeeds in km/h per vehicle type.
var AverageSpeeds = map[domain.VehicleType]float64{
	domain.VehicleTaxiEconomy: 30,
	domain.VehicleTaxiComfort: 30,
	domain.VehicleCar:         30,
	domain.VehicleBicycle:     15,
	domain.VehicleOnFoot:      5,
}

// HaversineMatrixProvider estimates legs offline from great-circle distance.
// It is used when no routing service is configured.
type HaversineMatrixProvider struct{}

func NewHaversineMatrixProvider() *HaversineMatrixProvider { return &HaversineMatrixProvider{} }

func (HaversineMatrixProvider) Matrix(ctx context.Context, points []domain.Coordinates, vt domain.VehicleType) (*domain.Matrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("haversine matrix: points must be non-empty")
	}

	speed, ok := AverageSpeeds[vt]
	if !ok {
		return nil, fmt.Errorf("haversine matrix: no average speed for vehicle type %s", vt)
	}
	metersPerSecond := speed * 1000 / 3600

	m := domain.NewMatrix(vt, points)
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			meters := haversineMeters(points[i], points[j]) * circuity
			m.Set(i, j, domain.Leg{
				DistanceMeters:  int(math.Round(meters)),
				DurationSeconds: int(math.Round(meters / metersPerSecond)),
			})
		}
	}
	return m, nil
}

func haversineMeters(a, b domain.Coordinates) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
