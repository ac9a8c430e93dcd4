package ports

import (
	"context"
	"courier-dispatch-service/internal/domain"
)

// Contract for retrieving a travel distance/duration matrix for one vehicle type.
type DistanceMatrixProvider interface {
	// Return a symmetric matrix index-aligned with points. Callers put the shop last.
	Matrix(ctx context.Context, points []domain.Coordinates, vt domain.VehicleType) (*domain.Matrix, error)
}
