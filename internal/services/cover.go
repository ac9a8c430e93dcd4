package services

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"errors"
	"fmt"
	"slices"
)

type coverRequest struct {
	Shop *domain.Shop
	// Deliveries must already be sorted by cost per order.
	Deliveries []*domain.Delivery
	// Orders is the batch to cover; deliveries touching any other order are skipped.
	Orders        []*domain.Order
	AssembledOnly bool
	Couriers      []*domain.Courier
}

// cover is the result of one greedy pass. Covered is indexed like the request's
// Orders; Remaining is the courier pool left after the pass.
type cover struct {
	Deliveries []*domain.Delivery
	Covered    []bool
	Remaining  []*domain.Courier
}

// buildCover walks the candidates cheapest-first and accepts every delivery
// whose orders are all in the batch and still uncovered and that some courier
// in the pool can drive. Non-taxi couriers leave the pool once bound; taxi
// classes stay. The pass stops as soon as every target order is covered.
//
// The batch index is private to this pass, so concurrent passes over shared
// orders never interfere.
func (d *Dispatcher) buildCover(ctx context.Context, req coverRequest) (*cover, error) {
	index := indexOrders(req.Orders)
	covered := make([]bool, len(req.Orders))
	pool := slices.Clone(req.Couriers)

	target := 0
	for _, o := range req.Orders {
		if !req.AssembledOnly || o.IsAssembled() {
			target++
		}
	}

	out := &cover{
		Deliveries: []*domain.Delivery{},
		Covered:    covered,
	}

	coveredCount := 0
	positions := make([]int, 0, MaxSubsetSize)

	for _, cand := range req.Deliveries {
		if coveredCount >= target {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("build cover: %w", err)
		}

		positions = positions[:0]
		usable := true
		for _, o := range cand.Orders {
			i, ok := index[o.OrderID]
			if !ok || covered[i] || (req.AssembledOnly && !o.IsAssembled()) {
				usable = false
				break
			}
			positions = append(positions, i)
		}
		if !usable {
			continue
		}

		bound, used, err := d.bindCourier(ctx, req.Shop, cand, pool)
		if err != nil {
			return nil, fmt.Errorf("build cover: %w", err)
		}
		if bound == nil {
			continue
		}
		if used >= 0 {
			pool = slices.Delete(pool, used, used+1)
		}

		out.Deliveries = append(out.Deliveries, bound)
		for _, i := range positions {
			covered[i] = true
		}
		coveredCount += len(positions)
	}

	out.Remaining = pool
	return out, nil
}

// bindCourier finds a courier in pool for the candidate. Taxis bind to the
// first courier of their class without scoring, since the class is not
// consumed. Staff couriers are rescored against their real shift on a matrix
// built for this delivery alone; the first that can drive it wins.
//
// used is the pool index of a consumed courier, or -1. A nil delivery with a
// nil error means nobody can take the candidate.
func (d *Dispatcher) bindCourier(
	ctx context.Context,
	shop *domain.Shop,
	cand *domain.Delivery,
	pool []*domain.Courier,
) (bound *domain.Delivery, used int, err error) {
	var matrix *domain.Matrix
	var points []int

	for i, c := range pool {
		if c.VehicleType != cand.VehicleType {
			continue
		}
		if c.IsTaxi() {
			return cand.WithCourier(c), -1, nil
		}

		if matrix == nil {
			matrix, points, err = d.deliveryMatrix(ctx, shop, cand)
			if err != nil {
				return nil, -1, err
			}
		}

		dlv, err := c.RealSchedule().ScoreRoute(domain.RouteRequest{
			CalcTime: cand.CalcTime,
			Shop:     shop,
			Orders:   cand.Orders,
			Points:   points,
			Loop:     cand.Loop,
			Matrix:   matrix,
		})
		if errors.Is(err, domain.ErrRouteInfeasible) {
			continue
		}
		if err != nil {
			return nil, -1, fmt.Errorf("bind courier %d: %w: %w", c.CourierID, ErrRouteScoring, err)
		}

		return dlv, i, nil
	}

	return nil, -1, nil
}

func (d *Dispatcher) deliveryMatrix(ctx context.Context, shop *domain.Shop, cand *domain.Delivery) (*domain.Matrix, []int, error) {
	coords := make([]domain.Coordinates, 0, len(cand.Orders)+1)
	points := make([]int, 0, len(cand.Orders))
	for i, o := range cand.Orders {
		coords = append(coords, o.Position)
		points = append(points, i)
	}
	coords = append(coords, shop.Position)

	m, err := d.provider.Matrix(ctx, coords, cand.VehicleType)
	if err != nil {
		return nil, nil, fmt.Errorf("bind courier: %s: %w: %w", cand.VehicleType, ErrMatrixUnavailable, err)
	}
	if err := m.Validate(len(points)); err != nil || m.Size() != len(coords) {
		return nil, nil, fmt.Errorf("bind courier: %s: %w: matrix does not match %d points", cand.VehicleType, ErrMatrixUnavailable, len(coords))
	}
	return m, points, nil
}

// indexOrders maps order ids to their position in orders.
func indexOrders(orders []*domain.Order) map[int64]int {
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		index[o.OrderID] = i
	}
	return index
}
