package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func lineMatrix(vt VehicleType, n int) *Matrix {
	// Points sit on a line 1km / 5min apart; the shop is the last point at position 0.
	points := make([]Coordinates, n+1)
	m := NewMatrix(vt, points)
	pos := func(i int) int {
		if i == n {
			return 0
		}
		return i + 1
	}
	for i := 0; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			d := pos(i) - pos(j)
			if d < 0 {
				d = -d
			}
			m.Set(i, j, Leg{DistanceMeters: d * 1000, DurationSeconds: d * 300})
		}
	}
	return m
}

func TestScoreRouteLoopCost(t *testing.T) {
	calc := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	shop := &Shop{ShopID: 7}

	o1 := &Order{OrderID: 1, DeliveryFrom: calc, DeliveryTo: calc.Add(2 * time.Hour)}
	o2 := &Order{OrderID: 2, DeliveryFrom: calc, DeliveryTo: calc.Add(2 * time.Hour)}

	courier := &Courier{
		CourierID:   1,
		VehicleType: VehicleBicycle,
		Schedule:    Schedule{WorkFrom: 8 * time.Hour, WorkTo: 20 * time.Hour},
		Tariff:      Tariff{Fixed: 10, PerKm: 2},
	}

	d, err := courier.RealSchedule().ScoreRoute(RouteRequest{
		CalcTime: calc,
		Shop:     shop,
		Orders:   []*Order{o1, o2},
		Points:   []int{0, 1},
		Loop:     true,
		Matrix:   lineMatrix(VehicleBicycle, 2),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// shop -> 1km -> 2km -> back 2km = 4km
	if d.DistanceMeters != 4000 {
		t.Errorf("distance = %d, want 4000", d.DistanceMeters)
	}
	if d.Cost != 18 {
		t.Errorf("cost = %v, want 18", d.Cost)
	}
	if d.OrderCount != 2 || d.OrderCost != 9 {
		t.Errorf("order count/cost = %d/%v, want 2/9", d.OrderCount, d.OrderCost)
	}
	if !d.Arrivals[0].Equal(calc.Add(5 * time.Minute)) {
		t.Errorf("first arrival = %v", d.Arrivals[0])
	}
	if d.ShopID != 7 || d.Courier != courier || !d.Loop {
		t.Errorf("unexpected delivery header: %+v", d)
	}
}

func TestScoreRouteRejectsLateArrival(t *testing.T) {
	calc := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	late := &Order{OrderID: 1, DeliveryFrom: calc, DeliveryTo: calc.Add(4 * time.Minute)}
	courier := &Courier{VehicleType: VehicleCar, Schedule: FullDay}

	_, err := courier.RealSchedule().ScoreRoute(RouteRequest{
		CalcTime: calc,
		Shop:     &Shop{},
		Orders:   []*Order{late},
		Points:   []int{0},
		Matrix:   lineMatrix(VehicleCar, 1),
	})
	if !errors.Is(err, ErrRouteInfeasible) {
		t.Fatalf("err = %v, want ErrRouteInfeasible", err)
	}
}

func TestScoreRouteWaitsForWindowAndLunch(t *testing.T) {
	calc := time.Date(2026, 1, 1, 11, 50, 0, 0, time.UTC)
	o := &Order{OrderID: 1, DeliveryFrom: calc, DeliveryTo: calc.Add(3 * time.Hour)}
	courier := &Courier{
		VehicleType: VehicleOnFoot,
		Schedule: Schedule{
			WorkFrom:  9 * time.Hour,
			WorkTo:    18 * time.Hour,
			LunchFrom: 12 * time.Hour,
			LunchTo:   13 * time.Hour,
		},
	}

	d, err := courier.RealSchedule().ScoreRoute(RouteRequest{
		CalcTime: calc,
		Shop:     &Shop{},
		Orders:   []*Order{o},
		Points:   []int{0},
		Matrix:   lineMatrix(VehicleOnFoot, 1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// arrival at 11:55 is before lunch, so no pause applies
	if want := calc.Add(5 * time.Minute); !d.Arrivals[0].Equal(want) {
		t.Errorf("arrival = %v, want %v", d.Arrivals[0], want)
	}

	calc = time.Date(2026, 1, 1, 11, 58, 0, 0, time.UTC)
	d, err = courier.RealSchedule().ScoreRoute(RouteRequest{
		CalcTime: calc,
		Shop:     &Shop{},
		Orders:   []*Order{o},
		Points:   []int{0},
		Matrix:   lineMatrix(VehicleOnFoot, 1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC); !d.Arrivals[0].Equal(want) {
		t.Errorf("arrival = %v, want %v (after lunch)", d.Arrivals[0], want)
	}
}

func TestScoreRouteShiftAndCapacity(t *testing.T) {
	calc := time.Date(2026, 1, 1, 19, 58, 0, 0, time.UTC)
	o := &Order{OrderID: 1, Weight: 5, DeliveryFrom: calc, DeliveryTo: calc.Add(time.Hour)}

	staff := &Courier{
		VehicleType: VehicleCar,
		Schedule:    Schedule{WorkFrom: 8 * time.Hour, WorkTo: 20 * time.Hour},
	}
	req := RouteRequest{
		CalcTime: calc,
		Shop:     &Shop{},
		Orders:   []*Order{o},
		Points:   []int{0},
		Loop:     true,
		Matrix:   lineMatrix(VehicleCar, 1),
	}

	if _, err := staff.RealSchedule().ScoreRoute(req); !errors.Is(err, ErrRouteInfeasible) {
		t.Errorf("real schedule: err = %v, want ErrRouteInfeasible", err)
	}
	if _, err := staff.Unconstrained().ScoreRoute(req); err != nil {
		t.Errorf("unconstrained view: unexpected error: %v", err)
	}

	staff.MaxWeight = 4
	if _, err := staff.Unconstrained().ScoreRoute(req); !errors.Is(err, ErrRouteInfeasible) {
		t.Errorf("overweight: err = %v, want ErrRouteInfeasible", err)
	}
}

func TestScoreRouteInvalidRequest(t *testing.T) {
	courier := &Courier{VehicleType: VehicleCar, Schedule: FullDay}
	_, err := courier.RealSchedule().ScoreRoute(RouteRequest{
		Shop:   &Shop{},
		Orders: []*Order{{OrderID: 1}},
		Points: []int{0},
	})
	if err == nil || errors.Is(err, ErrRouteInfeasible) {
		t.Fatalf("err = %v, want a request error", err)
	}
}

func TestVehicleTypeMask(t *testing.T) {
	mask := VehicleTaxiEconomy | VehicleBicycle
	types := mask.Types()
	if len(types) != 2 || types[0] != VehicleTaxiEconomy || types[1] != VehicleBicycle {
		t.Fatalf("types = %v", types)
	}
	if !VehicleTaxiComfort.IsTaxi() || VehicleCar.IsTaxi() || mask.IsTaxi() {
		t.Errorf("unexpected IsTaxi results")
	}

	parsed, err := ParseVehicleType("taxi-economy|bicycle")
	if err != nil || parsed != mask {
		t.Fatalf("parsed = %v, err = %v", parsed, err)
	}
	if _, err := ParseVehicleType("hovercraft"); err == nil {
		t.Errorf("expected error for unknown vehicle type")
	}
	if got := mask.String(); got != "taxi-economy|bicycle" {
		t.Errorf("String() = %q", got)
	}
}

func TestCoordinatesKey(t *testing.T) {
	c := Coordinates{Lon: -112.0740373, Lat: 33.4483771}
	if got := c.Key(); got != "-112.074037,33.448377" {
		t.Errorf("Key() = %q", got)
	}
	if math.Abs(c.CoordsToList()[1]-33.4483771) > 1e-9 {
		t.Errorf("CoordsToList lat mismatch")
	}
}
