package domain

import "time"

// Represents one courier's planned visit sequence out of a shop.
// A Delivery is produced by a courier's route scorer and is immutable planning
// data; only the courier binding is swapped during cover building, via WithCourier.
type Delivery struct {
	ShopID         int64
	Orders         []*Order
	Courier        *Courier
	VehicleType    VehicleType
	Loop           bool
	CalcTime       time.Time
	StartAt        time.Time
	FinishAt       time.Time
	Arrivals       []time.Time
	DistanceMeters int
	Cost           float64
	OrderCount     int
	OrderCost      float64
}

func (d *Delivery) IsTaxi() bool { return d.VehicleType.IsTaxi() }

// WithCourier returns a copy of the delivery bound to c.
func (d *Delivery) WithCourier(c *Courier) *Delivery {
	out := *d
	out.Courier = c
	return &out
}

// OrderIDs lists the order ids in visit order.
func (d *Delivery) OrderIDs() []int64 {
	ids := make([]int64, 0, len(d.Orders))
	for _, o := range d.Orders {
		ids = append(ids, o.OrderID)
	}
	return ids
}
