package services

import (
	"cmp"
	"context"
	"courier-dispatch-service/internal/domain"
	"courier-dispatch-service/internal/metrics"
	"courier-dispatch-service/internal/platform/obs"
	"fmt"
	"log"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// vehicleUnit is one enumeration job: a representative courier of a vehicle
// type and the matrix it routes on.
type vehicleUnit struct {
	vehicleType domain.VehicleType
	courier     *domain.Courier
	matrix      *domain.Matrix
}

type EnumerateByVehicleTypeRequest struct {
	Shop     *domain.Shop
	Orders   []*domain.Order
	Couriers []*domain.Courier
	CalcTime time.Time
}

// EnumerateByVehicleType builds the candidate delivery pool. One courier per
// distinct vehicle type represents its type: all couriers of a type share a
// tariff and capabilities, and enumeration ignores staff shifts.
//
// Matrices are fetched up front; failing to get any of them fails the call.
// Enumeration units then run concurrently and a failing unit only drops that
// vehicle type's candidates. The pool is sorted ascending by cost per order,
// ties keeping vehicle type order.
func (d *Dispatcher) EnumerateByVehicleType(ctx context.Context, req EnumerateByVehicleTypeRequest) ([]*domain.Delivery, error) {
	if req.Shop == nil || len(req.Orders) == 0 || len(req.Couriers) == 0 {
		return []*domain.Delivery{}, nil
	}

	units := representatives(req.Couriers)

	points := make([]domain.Coordinates, 0, len(req.Orders)+1)
	for _, o := range req.Orders {
		points = append(points, o.Position)
	}
	points = append(points, req.Shop.Position)

	if err := d.fetchMatrices(ctx, units, points); err != nil {
		return nil, stageError(StageMatrix, err)
	}

	results := make([][]*domain.Delivery, len(units))

	var g errgroup.Group
	g.SetLimit(d.workers)

	for i, u := range units {
		g.Go(func() error {
			ds, err := d.enumerateUnit(ctx, req, u)
			if err != nil {
				log.Printf(
					"req_id=%s op=enumerate vehicle_type=%s courier_id=%d orders=%d err=%v",
					obs.RequestID(ctx), u.vehicleType, u.courier.CourierID, len(req.Orders), err,
				)
				return nil
			}
			metrics.DeliveriesEnumerated.WithLabelValues(u.vehicleType.String()).Add(float64(len(ds)))
			results[i] = ds
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("enumerate by vehicle type: %w", err)
	}

	total := 0
	for _, ds := range results {
		total += len(ds)
	}
	pool := make([]*domain.Delivery, 0, total)
	for _, ds := range results {
		pool = append(pool, ds...)
	}

	slices.SortStableFunc(pool, func(a, b *domain.Delivery) int {
		return cmp.Compare(a.OrderCost, b.OrderCost)
	})

	return pool, nil
}

func (d *Dispatcher) fetchMatrices(ctx context.Context, units []vehicleUnit, points []domain.Coordinates) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for i := range units {
		g.Go(func() error {
			vt := units[i].vehicleType
			m, err := d.provider.Matrix(gctx, points, vt)
			if err != nil {
				return fmt.Errorf("fetch matrices: %s: %w: %w", vt, ErrMatrixUnavailable, err)
			}
			if err := m.Validate(len(points) - 1); err != nil || m.Size() != len(points) {
				return fmt.Errorf("fetch matrices: %s: %w: matrix does not match %d points", vt, ErrMatrixUnavailable, len(points))
			}
			units[i].matrix = m
			return nil
		})
	}

	return g.Wait()
}

func (d *Dispatcher) enumerateUnit(ctx context.Context, req EnumerateByVehicleTypeRequest, u vehicleUnit) (ds []*domain.Delivery, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w: %v", u.vehicleType, ErrStagePanic, r)
		}
	}()

	return d.enumerate(ctx, EnumerateRequest{
		Shop:         req.Shop,
		Orders:       req.Orders,
		Courier:      u.courier.Unconstrained(),
		Loop:         !u.courier.IsTaxi(),
		CalcTime:     req.CalcTime,
		Matrix:       u.matrix,
		Permutations: d.permutations,
		Thresholds:   d.thresholds,
	})
}

// representatives picks the first courier of each vehicle type in roster
// order and returns them sorted by vehicle type.
func representatives(couriers []*domain.Courier) []vehicleUnit {
	seen := make(map[domain.VehicleType]bool, len(domain.AllVehicleTypes))
	units := make([]vehicleUnit, 0, len(domain.AllVehicleTypes))

	for _, c := range couriers {
		if c == nil || seen[c.VehicleType] {
			continue
		}
		seen[c.VehicleType] = true
		units = append(units, vehicleUnit{vehicleType: c.VehicleType, courier: c})
	}

	slices.SortFunc(units, func(a, b vehicleUnit) int {
		return cmp.Compare(a.vehicleType, b.vehicleType)
	})
	return units
}
