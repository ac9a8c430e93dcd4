package distance

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"fmt"
	"math"
	"sync"
)

type MockPair struct {
	From, To domain.Coordinates
	Meters   int
	Seconds  int
}

// MockCall records one Matrix request.
type MockCall struct {
	VehicleType domain.VehicleType
	Points      int
}

// MockMatrixProvider serves matrices from explicit pairs. Pairs it does not
// know fall back to a grid metric: 1000 m and 300 s per unit of Manhattan
// distance between coordinates.
type MockMatrixProvider struct {
	mu       sync.Mutex
	m        map[string]domain.Leg
	failures map[domain.VehicleType]error
	after    map[domain.VehicleType]failAfter
	calls    []MockCall
}

type failAfter struct {
	n   int
	err error
}

func NewMockMatrixProvider(pairs []MockPair) *MockMatrixProvider {
	m := make(map[string]domain.Leg, len(pairs)*2)
	for _, p := range pairs {
		leg := domain.Leg{DistanceMeters: p.Meters, DurationSeconds: p.Seconds}
		m[p.From.Key()+"|"+p.To.Key()] = leg
		m[p.To.Key()+"|"+p.From.Key()] = leg
	}
	return &MockMatrixProvider{
		m:        m,
		failures: map[domain.VehicleType]error{},
		after:    map[domain.VehicleType]failAfter{},
	}
}

// FailFor makes every request for vt return err.
func (p *MockMatrixProvider) FailFor(vt domain.VehicleType, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[vt] = err
}

// FailAfter lets the first n requests for vt succeed and fails the rest with err.
func (p *MockMatrixProvider) FailAfter(vt domain.VehicleType, n int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.after[vt] = failAfter{n: n, err: err}
}

func (p *MockMatrixProvider) Calls() []MockCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]MockCall, len(p.calls))
	copy(out, p.calls)
	return out
}

func (p *MockMatrixProvider) Matrix(ctx context.Context, points []domain.Coordinates, vt domain.VehicleType) (*domain.Matrix, error) {
	p.mu.Lock()
	p.calls = append(p.calls, MockCall{VehicleType: vt, Points: len(points)})
	failure := p.failures[vt]
	if fa, ok := p.after[vt]; ok {
		seen := 0
		for _, c := range p.calls {
			if c.VehicleType == vt {
				seen++
			}
		}
		if seen > fa.n {
			failure = fa.err
		}
	}
	p.mu.Unlock()

	if failure != nil {
		return nil, fmt.Errorf("mock matrix %s: %w", vt, failure)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := domain.NewMatrix(vt, points)
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			m.Set(i, j, p.leg(points[i], points[j]))
		}
	}
	return m, nil
}

func (p *MockMatrixProvider) leg(a, b domain.Coordinates) domain.Leg {
	if leg, ok := p.m[a.Key()+"|"+b.Key()]; ok {
		return leg
	}
	units := math.Abs(a.Lon-b.Lon) + math.Abs(a.Lat-b.Lat)
	return domain.Leg{
		DistanceMeters:  int(math.Round(units * 1000)),
		DurationSeconds: int(math.Round(units * 300)),
	}
}
