package distance

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"encoding/json"
	"fmt"
	"math"
)

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// fetchMatrix retrieves the all-to-all distance and duration table for the
// locations using the OpenRouteService matrix endpoint.
func (o *ORSMatrixProvider) fetchMatrix(
	ctx context.Context,
	profile string,
	locations []domain.Coordinates,
) ([][]domain.Leg, error) {
	n := len(locations)
	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, profile)

	coords := make([][]float64, 0, n)
	for _, c := range locations {
		coords = append(coords, c.CoordsToList())
	}

	payload, err := json.Marshal(matrixRequest{
		Locations: coords,
		Metrics:   []string{"distance", "duration"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := o.postJSON(ctx, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	if len(mr.Distances) != n || len(mr.Durations) != n {
		return nil, fmt.Errorf(
			"expected %d rows; got distances=%d durations=%d",
			n, len(mr.Distances), len(mr.Durations),
		)
	}

	out := make([][]domain.Leg, n)
	for i := 0; i < n; i++ {
		if len(mr.Distances[i]) != n || len(mr.Durations[i]) != n {
			return nil, fmt.Errorf(
				"row %d lengths do not match locations: distances=%d durations=%d locations=%d",
				i, len(mr.Distances[i]), len(mr.Durations[i]), n,
			)
		}

		out[i] = make([]domain.Leg, n)
		for j := 0; j < n; j++ {
			metersPtr := mr.Distances[i][j]
			secondsPtr := mr.Durations[i][j]

			if metersPtr == nil || secondsPtr == nil {
				return nil, fmt.Errorf("matrix returned no route from location %d to %d", i, j)
			}

			// ORS returns float metrics; round to nearest integer for domain consistency.
			out[i][j] = domain.Leg{
				DistanceMeters:  int(math.Round(*metersPtr)),
				DurationSeconds: int(math.Round(*secondsPtr)),
			}
		}
	}

	return out, nil
}
