package services

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"errors"
	"fmt"
	"slices"
	"time"
)

// deliveryBufferStep is the growth increment of the enumeration output.
const deliveryBufferStep = 256

type EnumerateRequest struct {
	Shop *domain.Shop
	// Orders[i] sits at matrix point i; the shop is the matrix's last point.
	Orders       []*domain.Order
	Courier      domain.ScheduleView
	Loop         bool
	CalcTime     time.Time
	Matrix       *domain.Matrix
	Permutations *Permutations
	Thresholds   Thresholds
}

// EnumerateDeliveries finds, for every subset of up to N orders the courier may
// carry, the cheapest stop order the courier can drive. N comes from the
// threshold table so that large batches only explore small subsets.
//
// Subsets are visited by size, then as ascending index tuples; permutations in
// lexicographic order. Within a subset the first feasible result wins unless a
// later one carries more orders, or as many orders for strictly less. Subsets
// without a feasible ordering contribute nothing.
func EnumerateDeliveries(ctx context.Context, req EnumerateRequest) ([]*domain.Delivery, error) {
	courier := req.Courier.Courier()
	if req.Shop == nil {
		return nil, fmt.Errorf("enumerate deliveries: %w: shop must be non-nil", ErrInvalidInput)
	}
	if courier == nil {
		return nil, fmt.Errorf("enumerate deliveries: %w: courier must be non-nil", ErrInvalidInput)
	}
	if len(req.Orders) == 0 {
		return nil, fmt.Errorf("enumerate deliveries: %w: orders must be non-empty", ErrInvalidInput)
	}
	if req.Permutations == nil {
		return nil, fmt.Errorf("enumerate deliveries: %w: permutations must be non-nil", ErrInvalidInput)
	}
	if err := req.Matrix.Validate(len(req.Orders)); err != nil {
		return nil, fmt.Errorf("enumerate deliveries: %w: %w", ErrMatrixUnavailable, err)
	}
	if req.Matrix.Size() != len(req.Orders)+1 {
		return nil, fmt.Errorf(
			"enumerate deliveries: %w: matrix has %d points, want %d",
			ErrMatrixUnavailable, req.Matrix.Size(), len(req.Orders)+1,
		)
	}

	eligible := make([]int, 0, len(req.Orders))
	for i, o := range req.Orders {
		if courier.CanCarry(o) {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return []*domain.Delivery{}, nil
	}

	// The tier is picked from the whole batch, not just what this courier carries.
	maxSize := min(req.Thresholds.MaxSubsetSize(len(req.Orders)), len(eligible), MaxSubsetSize)

	out := make([]*domain.Delivery, 0, deliveryBufferStep)
	stops := make([]*domain.Order, maxSize)
	points := make([]int, maxSize)

	for k := 1; k <= maxSize; k++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("enumerate deliveries: %w", err)
		}

		perms := req.Permutations.Of(k)
		var scoreErr error

		forEachCombination(len(eligible), k, func(idx []int) bool {
			var best *domain.Delivery

			for _, perm := range perms {
				for j, p := range perm {
					pt := eligible[idx[p]]
					stops[j] = req.Orders[pt]
					points[j] = pt
				}

				d, err := req.Courier.ScoreRoute(domain.RouteRequest{
					CalcTime: req.CalcTime,
					Shop:     req.Shop,
					Orders:   stops[:k],
					Points:   points[:k],
					Loop:     req.Loop,
					Matrix:   req.Matrix,
				})
				if errors.Is(err, domain.ErrRouteInfeasible) {
					continue
				}
				if err != nil {
					scoreErr = err
					return false
				}

				if better(d, best) {
					best = d
				}
			}

			if best != nil {
				if len(out) == cap(out) {
					out = slices.Grow(out, deliveryBufferStep)
				}
				out = append(out, best)
			}
			return true
		})

		if scoreErr != nil {
			return nil, fmt.Errorf(
				"enumerate deliveries: courier %d size %d: %w: %w",
				courier.CourierID, k, ErrRouteScoring, scoreErr,
			)
		}
	}

	return slices.Clip(out), nil
}

// better reports whether candidate should replace the current best.
func better(candidate, best *domain.Delivery) bool {
	if best == nil {
		return true
	}
	if candidate.OrderCount != best.OrderCount {
		return candidate.OrderCount > best.OrderCount
	}
	return candidate.Cost < best.Cost
}
