package services

import (
	"courier-dispatch-service/internal/adapters/distance"
	"courier-dispatch-service/internal/domain"
	"time"
)

var calcTime = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func testShop() *domain.Shop {
	return &domain.Shop{ShopID: 1, Name: "central"}
}

// testOrder places an order on the x axis; the mock provider prices one unit
// as 1km and 5 minutes.
func testOrder(id int64, lon float64, status domain.OrderStatus, types domain.VehicleType) *domain.Order {
	return &domain.Order{
		OrderID:      id,
		ShopID:       1,
		Position:     domain.Coordinates{Lon: lon},
		DeliveryFrom: calcTime,
		DeliveryTo:   calcTime.Add(4 * time.Hour),
		Weight:       1,
		Status:       status,
		EnabledTypes: types,
	}
}

func testTaxi(id int64) *domain.Courier {
	return &domain.Courier{
		CourierID:   id,
		Name:        "taxi",
		VehicleType: domain.VehicleTaxiEconomy,
		Schedule:    domain.FullDay,
		Tariff:      domain.Tariff{Fixed: 3, PerKm: 2},
	}
}

func testBicycle(id int64) *domain.Courier {
	return &domain.Courier{
		CourierID:   id,
		Name:        "bicycle",
		VehicleType: domain.VehicleBicycle,
		Schedule:    domain.Schedule{WorkFrom: 8 * time.Hour, WorkTo: 20 * time.Hour},
		Tariff:      domain.Tariff{Fixed: 1, PerKm: 1},
	}
}

func newTestDispatcher() (*Dispatcher, *distance.MockMatrixProvider) {
	provider := distance.NewMockMatrixProvider(nil)
	return NewDispatcher(provider, DispatcherConfig{}), provider
}

func deliveryOrderIDs(ds []*domain.Delivery) [][]int64 {
	out := make([][]int64, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.OrderIDs())
	}
	return out
}

func deliveryCourierIDs(ds []*domain.Delivery) []int64 {
	out := make([]int64, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Courier.CourierID)
	}
	return out
}

const taxiOrBicycle = domain.VehicleTaxiEconomy | domain.VehicleBicycle
