package dto

import "time"

type DeliveriesRequest struct {
	ShopID   int64      `json:"shop_id"`
	CalcTime *time.Time `json:"calc_time"`
}

type DeliveryStopResponse struct {
	OrderID  int64     `json:"order_id"`
	ArriveAt time.Time `json:"arrive_at"`
}

type DeliveryResponse struct {
	CourierID      int64                  `json:"courier_id"`
	VehicleType    string                 `json:"vehicle_type"`
	Loop           bool                   `json:"loop"`
	StartAt        time.Time              `json:"start_at"`
	FinishAt       time.Time              `json:"finish_at"`
	DistanceMeters int                    `json:"distance_meters"`
	Cost           float64                `json:"cost"`
	OrderCost      float64                `json:"order_cost"`
	Stops          []DeliveryStopResponse `json:"stops"`
}

type ShopDeliveriesResponse struct {
	PlanID      string             `json:"plan_id"`
	ShopID      int64              `json:"shop_id"`
	CalcTime    time.Time          `json:"calc_time"`
	Assembled   []DeliveryResponse `json:"assembled"`
	Pending     []DeliveryResponse `json:"pending"`
	Undelivered []OrderResponse    `json:"undelivered"`
}
