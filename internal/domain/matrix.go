package domain

import "fmt"

// Leg is the travel distance and duration between two matrix points.
type Leg struct {
	DistanceMeters  int
	DurationSeconds int
}

// Matrix is a symmetric point-to-point distance/time table for one vehicle type.
// Point indices follow the coordinate slice it was built from; by convention the
// last point is the shop.
type Matrix struct {
	VehicleType VehicleType
	Points      []Coordinates
	legs        []Leg
}

func NewMatrix(vt VehicleType, points []Coordinates) *Matrix {
	n := len(points)
	return &Matrix{
		VehicleType: vt,
		Points:      points,
		legs:        make([]Leg, n*n),
	}
}

func (m *Matrix) Size() int { return len(m.Points) }

// ShopIndex returns the index reserved for the shop.
func (m *Matrix) ShopIndex() int { return len(m.Points) - 1 }

// Set stores the leg in both directions.
func (m *Matrix) Set(i, j int, leg Leg) {
	n := len(m.Points)
	m.legs[i*n+j] = leg
	m.legs[j*n+i] = leg
}

func (m *Matrix) Leg(i, j int) Leg { return m.legs[i*len(m.Points)+j] }

// Validate checks that the matrix can serve a route over `stops` order points plus the shop.
func (m *Matrix) Validate(stops int) error {
	if m == nil {
		return fmt.Errorf("matrix: nil matrix")
	}
	if len(m.legs) != len(m.Points)*len(m.Points) {
		return fmt.Errorf("matrix: %d legs for %d points", len(m.legs), len(m.Points))
	}
	if len(m.Points) < stops+1 {
		return fmt.Errorf("matrix: %d points cannot hold %d stops and the shop", len(m.Points), stops)
	}
	return nil
}
