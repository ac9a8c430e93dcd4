package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrRouteInfeasible marks a route the courier cannot complete. It is a normal
// planning outcome, not a failure.
var ErrRouteInfeasible = errors.New("route infeasible")

// Schedule is a daily working window expressed as offsets from midnight.
// A zero-length lunch window means no lunch break.
type Schedule struct {
	WorkFrom  time.Duration
	WorkTo    time.Duration
	LunchFrom time.Duration
	LunchTo   time.Duration
}

// FullDay is the schedule used to explore routes without shift constraints.
var FullDay = Schedule{WorkFrom: 0, WorkTo: 24 * time.Hour}

func (s Schedule) hasLunch() bool { return s.LunchTo > s.LunchFrom }

// Tariff prices a route.
type Tariff struct {
	Fixed   float64
	PerKm   float64
	PerHour float64
}

// Courier is a delivery resource: a staff courier or an on-demand taxi class.
// MaxWeight and MaxOrders of zero mean unlimited.
type Courier struct {
	CourierID   int64
	Name        string
	VehicleType VehicleType
	Schedule    Schedule
	Tariff      Tariff
	MaxWeight   float64
	MaxOrders   int
	ServiceTime time.Duration
}

func (c *Courier) IsTaxi() bool { return c.VehicleType.IsTaxi() }

// CanCarry reports whether the courier's vehicle type is enabled for the order.
func (c *Courier) CanCarry(o *Order) bool { return c.VehicleType.Intersects(o.EnabledTypes) }

// RealSchedule is the view used when binding this exact courier to a delivery.
func (c *Courier) RealSchedule() ScheduleView {
	return ScheduleView{courier: c, schedule: c.Schedule}
}

// Unconstrained is the view used for candidate enumeration. Taxis keep their
// own schedule; staff couriers are treated as available the whole day so that
// one instance's shift does not prune routes another instance could drive.
func (c *Courier) Unconstrained() ScheduleView {
	if c.IsTaxi() {
		return c.RealSchedule()
	}
	return ScheduleView{courier: c, schedule: FullDay}
}

// ScheduleView scores routes for one courier identity under one schedule.
type ScheduleView struct {
	courier  *Courier
	schedule Schedule
}

func (v ScheduleView) Courier() *Courier { return v.courier }

func (v ScheduleView) Schedule() Schedule { return v.schedule }

// RouteRequest describes a candidate stop sequence. Points[i] is the matrix
// index of Orders[i]; the shop is the matrix's last point.
type RouteRequest struct {
	CalcTime time.Time
	Shop     *Shop
	Orders   []*Order
	Points   []int
	Loop     bool
	Matrix   *Matrix
}

// ScoreRoute checks whether the courier can drive the stops in the given order
// and prices the result. The route departs the shop at calcTime or the start
// of the shift, whichever is later; arrivals before a delivery window wait for
// it to open, arrivals after it close reject the route. Lunch breaks pause the
// route. A loop route must be back at the shop before the shift ends, a one-way
// route must finish its last drop-off by then.
func (v ScheduleView) ScoreRoute(req RouteRequest) (*Delivery, error) {
	c := v.courier
	if c == nil {
		return nil, errors.New("score route: courier must be non-nil")
	}
	if req.Shop == nil {
		return nil, errors.New("score route: shop must be non-nil")
	}
	if len(req.Orders) == 0 {
		return nil, errors.New("score route: orders must be non-empty")
	}
	if len(req.Points) != len(req.Orders) {
		return nil, fmt.Errorf("score route: %d points for %d orders", len(req.Points), len(req.Orders))
	}
	if err := req.Matrix.Validate(len(req.Orders)); err != nil {
		return nil, fmt.Errorf("score route: %w", err)
	}

	if c.MaxOrders > 0 && len(req.Orders) > c.MaxOrders {
		return nil, ErrRouteInfeasible
	}

	if c.MaxWeight > 0 {
		weight := 0.0
		for _, o := range req.Orders {
			weight += o.Weight
		}
		if weight > c.MaxWeight {
			return nil, ErrRouteInfeasible
		}
	}

	s := v.schedule
	y, mo, d := req.CalcTime.Date()
	day := time.Date(y, mo, d, 0, 0, 0, 0, req.CalcTime.Location())
	workStart := day.Add(s.WorkFrom)
	workEnd := day.Add(s.WorkTo)
	lunchStart := day.Add(s.LunchFrom)
	lunchEnd := day.Add(s.LunchTo)

	start := req.CalcTime
	if start.Before(workStart) {
		start = workStart
	}
	if !start.Before(workEnd) {
		return nil, ErrRouteInfeasible
	}

	current := start
	pause := func() {
		if s.hasLunch() && !current.Before(lunchStart) && current.Before(lunchEnd) {
			current = lunchEnd
		}
	}

	last := req.Matrix.ShopIndex()
	distance := 0
	arrivals := make([]time.Time, 0, len(req.Orders))

	for i, o := range req.Orders {
		p := req.Points[i]
		if p < 0 || p >= req.Matrix.Size() {
			return nil, fmt.Errorf("score route: point %d out of range for order %d", p, o.OrderID)
		}

		leg := req.Matrix.Leg(last, p)
		distance += leg.DistanceMeters
		current = current.Add(time.Duration(leg.DurationSeconds) * time.Second)
		pause()

		if current.Before(o.DeliveryFrom) {
			current = o.DeliveryFrom
			pause()
		}
		if current.After(o.DeliveryTo) {
			return nil, ErrRouteInfeasible
		}

		arrivals = append(arrivals, current)
		current = current.Add(c.ServiceTime)
		last = p
	}

	if req.Loop {
		back := req.Matrix.Leg(last, req.Matrix.ShopIndex())
		distance += back.DistanceMeters
		current = current.Add(time.Duration(back.DurationSeconds) * time.Second)
	}

	if current.After(workEnd) {
		return nil, ErrRouteInfeasible
	}

	cost := c.Tariff.Fixed +
		c.Tariff.PerKm*float64(distance)/1000 +
		c.Tariff.PerHour*current.Sub(start).Hours()

	orders := make([]*Order, len(req.Orders))
	copy(orders, req.Orders)

	return &Delivery{
		ShopID:         req.Shop.ShopID,
		Orders:         orders,
		Courier:        c,
		VehicleType:    c.VehicleType,
		Loop:           req.Loop,
		CalcTime:       req.CalcTime,
		StartAt:        start,
		FinishAt:       current,
		Arrivals:       arrivals,
		DistanceMeters: distance,
		Cost:           cost,
		OrderCount:     len(orders),
		OrderCost:      cost / float64(len(orders)),
	}, nil
}
