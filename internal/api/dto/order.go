package dto

import "time"

type OrderResponse struct {
	OrderID         int64     `json:"order_id"`
	Lon             float64   `json:"lon"`
	Lat             float64   `json:"lat"`
	DeliveryFrom    time.Time `json:"delivery_from"`
	DeliveryTo      time.Time `json:"delivery_to"`
	Weight          float64   `json:"weight"`
	Status          string    `json:"status"`
	VehicleTypes    string    `json:"vehicle_types"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
}

type ListOrdersResponse struct {
	ShopID int64           `json:"shop_id"`
	Orders []OrderResponse `json:"orders"`
}
