package domain

import "time"

type OrderStatus string

const (
	OrderReceived   OrderStatus = "received"
	OrderAssembled  OrderStatus = "assembled"
	OrderDelivering OrderStatus = "delivering"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// RejectionReason explains why an order ended up undelivered.
type RejectionReason string

const (
	RejectionNone               RejectionReason = ""
	RejectionLate               RejectionReason = "late"
	RejectionCourierUnavailable RejectionReason = "courier unavailable"
	RejectionNotDispatchable    RejectionReason = "not dispatchable"
	RejectionNoRoute            RejectionReason = "no route"
	RejectionUnreachable        RejectionReason = "unreachable"
)

// Represents a customer order waiting to be delivered from a shop.
// EnabledTypes is the mask of vehicle types allowed to carry the order.
// RejectionReason is written by the dispatcher and never read back by it.
type Order struct {
	OrderID         int64
	ShopID          int64
	Position        Coordinates
	DeliveryFrom    time.Time
	DeliveryTo      time.Time
	Weight          float64
	Status          OrderStatus
	EnabledTypes    VehicleType
	RejectionReason RejectionReason
}

func (o *Order) IsAssembled() bool { return o.Status == OrderAssembled }

// IsDispatchable reports whether the order is in a status the dispatcher plans for.
func (o *Order) IsDispatchable() bool {
	return o.Status == OrderReceived || o.Status == OrderAssembled
}

// IsLate reports whether the delivery window has already closed at calcTime.
func (o *Order) IsLate(calcTime time.Time) bool { return calcTime.After(o.DeliveryTo) }

func (o *Order) Reject(reason RejectionReason) { o.RejectionReason = reason }
