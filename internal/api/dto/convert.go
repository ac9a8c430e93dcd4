package dto

import "courier-dispatch-service/internal/domain"

func NewOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		OrderID:         o.OrderID,
		Lon:             o.Position.Lon,
		Lat:             o.Position.Lat,
		DeliveryFrom:    o.DeliveryFrom,
		DeliveryTo:      o.DeliveryTo,
		Weight:          o.Weight,
		Status:          string(o.Status),
		VehicleTypes:    o.EnabledTypes.String(),
		RejectionReason: string(o.RejectionReason),
	}
}

func NewDeliveryResponse(d *domain.Delivery) DeliveryResponse {
	stops := make([]DeliveryStopResponse, 0, len(d.Orders))
	for i, o := range d.Orders {
		stop := DeliveryStopResponse{OrderID: o.OrderID}
		if i < len(d.Arrivals) {
			stop.ArriveAt = d.Arrivals[i]
		}
		stops = append(stops, stop)
	}

	var courierID int64
	if d.Courier != nil {
		courierID = d.Courier.CourierID
	}

	return DeliveryResponse{
		CourierID:      courierID,
		VehicleType:    d.VehicleType.String(),
		Loop:           d.Loop,
		StartAt:        d.StartAt,
		FinishAt:       d.FinishAt,
		DistanceMeters: d.DistanceMeters,
		Cost:           d.Cost,
		OrderCost:      d.OrderCost,
		Stops:          stops,
	}
}

func NewDeliveryResponses(ds []*domain.Delivery) []DeliveryResponse {
	out := make([]DeliveryResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, NewDeliveryResponse(d))
	}
	return out
}
