package services

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertPartition checks that every order lands in exactly one collection.
func assertPartition(t *testing.T, orders []*domain.Order, res *ShopDeliveries) {
	t.Helper()

	seen := make(map[int64]int, len(orders))
	for _, ds := range [][]*domain.Delivery{res.Assembled, res.Pending} {
		for _, d := range ds {
			for _, o := range d.Orders {
				seen[o.OrderID]++
			}
		}
	}
	for _, o := range res.Undelivered {
		seen[o.OrderID]++
		assert.NotEqual(t, domain.RejectionNone, o.RejectionReason, "order_id=%d", o.OrderID)
	}

	require.Len(t, seen, len(orders))
	for _, o := range orders {
		assert.Equal(t, 1, seen[o.OrderID], "order_id=%d", o.OrderID)
	}
}

func summarize(res *ShopDeliveries) []string {
	var out []string
	for _, d := range res.Assembled {
		out = append(out, fmt.Sprintf("assembled courier=%d orders=%v cost=%.3f", d.Courier.CourierID, d.OrderIDs(), d.Cost))
	}
	for _, d := range res.Pending {
		out = append(out, fmt.Sprintf("pending courier=%d orders=%v cost=%.3f", d.Courier.CourierID, d.OrderIDs(), d.Cost))
	}
	for _, o := range res.Undelivered {
		out = append(out, fmt.Sprintf("undelivered order=%d reason=%s", o.OrderID, o.RejectionReason))
	}
	return out
}

func TestCreateShopDeliveriesTaxiAndBicycle(t *testing.T) {
	d, _ := newTestDispatcher()

	orders := []*domain.Order{
		testOrder(1, 1, domain.OrderAssembled, taxiOrBicycle),
		testOrder(2, 2, domain.OrderAssembled, taxiOrBicycle),
	}

	res, err := d.CreateShopDeliveries(context.Background(), ShopDeliveriesRequest{
		Shop:     testShop(),
		Orders:   orders,
		Couriers: []*domain.Courier{testTaxi(100), testBicycle(200)},
		CalcTime: calcTime,
	})
	require.NoError(t, err)

	// The combined bicycle loop (4km, cost 5) beats every taxi option.
	require.Len(t, res.Assembled, 1)
	assert.Equal(t, []int64{1, 2}, res.Assembled[0].OrderIDs())
	assert.Equal(t, int64(200), res.Assembled[0].Courier.CourierID)
	assert.InDelta(t, 5.0, res.Assembled[0].Cost, 1e-9)
	assert.Empty(t, res.Pending)
	assert.Empty(t, res.Undelivered)
	assert.Equal(t, calcTime, res.CalcTime)
}

func TestCreateShopDeliveriesLateOrder(t *testing.T) {
	d, provider := newTestDispatcher()

	onTime := testOrder(1, 1, domain.OrderAssembled, taxiOrBicycle)
	late := testOrder(2, 2, domain.OrderAssembled, taxiOrBicycle)
	late.DeliveryTo = calcTime.Add(-time.Minute)
	orders := []*domain.Order{onTime, late}

	res, err := d.CreateShopDeliveries(context.Background(), ShopDeliveriesRequest{
		Shop:     testShop(),
		Orders:   orders,
		Couriers: []*domain.Courier{testTaxi(100)},
		CalcTime: calcTime,
	})
	require.NoError(t, err)

	assertPartition(t, orders, res)
	assert.Equal(t, []*domain.Order{late}, res.Undelivered)
	assert.Equal(t, domain.RejectionLate, late.RejectionReason)

	// Only the on-time order and the shop were sent to the matrix provider.
	for _, call := range provider.Calls() {
		assert.Equal(t, 2, call.Points)
	}
}

func TestCreateShopDeliveriesNoCompatibleCourier(t *testing.T) {
	d, provider := newTestDispatcher()

	onFoot := testOrder(1, 1, domain.OrderAssembled, domain.VehicleOnFoot)

	res, err := d.CreateShopDeliveries(context.Background(), ShopDeliveriesRequest{
		Shop:     testShop(),
		Orders:   []*domain.Order{onFoot},
		Couriers: []*domain.Courier{testTaxi(100), testBicycle(200)},
		CalcTime: calcTime,
	})
	require.NoError(t, err)

	assert.Empty(t, res.Assembled)
	assert.Empty(t, res.Pending)
	assert.Equal(t, []*domain.Order{onFoot}, res.Undelivered)
	assert.Equal(t, domain.RejectionCourierUnavailable, onFoot.RejectionReason)
	assert.Empty(t, provider.Calls())
}

func TestCreateShopDeliveriesPendingPlan(t *testing.T) {
	d, _ := newTestDispatcher()

	assembled := testOrder(1, 1, domain.OrderAssembled, taxiOrBicycle)
	received := testOrder(2, -2, domain.OrderReceived, taxiOrBicycle)
	orders := []*domain.Order{assembled, received}

	res, err := d.CreateShopDeliveries(context.Background(), ShopDeliveriesRequest{
		Shop:     testShop(),
		Orders:   orders,
		Couriers: []*domain.Courier{testTaxi(100), testBicycle(200)},
		CalcTime: calcTime,
	})
	require.NoError(t, err)

	assertPartition(t, orders, res)
	assert.Equal(t, [][]int64{{1}}, deliveryOrderIDs(res.Assembled))
	assert.Equal(t, []int64{200}, deliveryCourierIDs(res.Assembled))
	assert.Equal(t, [][]int64{{2}}, deliveryOrderIDs(res.Pending))
	assert.Equal(t, []int64{100}, deliveryCourierIDs(res.Pending))
	assert.Empty(t, res.Undelivered)
}

func TestCreateShopDeliveriesStrandedAssembledOrderIsUndelivered(t *testing.T) {
	d, _ := newTestDispatcher()

	// Both assembled orders are due within ten minutes, so one bicycle cannot
	// take them together.
	east := testOrder(1, 1, domain.OrderAssembled, domain.VehicleBicycle)
	east.DeliveryTo = calcTime.Add(10 * time.Minute)
	west := testOrder(2, -1, domain.OrderAssembled, domain.VehicleBicycle)
	west.DeliveryTo = calcTime.Add(10 * time.Minute)
	received := testOrder(3, -1.5, domain.OrderReceived, domain.VehicleBicycle)
	orders := []*domain.Order{east, west, received}

	res, err := d.CreateShopDeliveries(context.Background(), ShopDeliveriesRequest{
		Shop:     testShop(),
		Orders:   orders,
		Couriers: []*domain.Courier{testBicycle(200)},
		CalcTime: calcTime,
	})
	require.NoError(t, err)

	assertPartition(t, orders, res)
	assert.Equal(t, [][]int64{{1}}, deliveryOrderIDs(res.Assembled))
	assert.Empty(t, res.Pending)

	reasons := make(map[int64]domain.RejectionReason)
	for _, o := range res.Undelivered {
		reasons[o.OrderID] = o.RejectionReason
	}
	assert.Equal(t, map[int64]domain.RejectionReason{
		2: domain.RejectionNoRoute,
		3: domain.RejectionUnreachable,
	}, reasons)
}

func TestCreateShopDeliveriesPartition(t *testing.T) {
	d, _ := newTestDispatcher()

	shared := testOrder(1, 1, domain.OrderAssembled, taxiOrBicycle)
	received := testOrder(2, 2, domain.OrderReceived, taxiOrBicycle)
	tooFar := testOrder(3, 50, domain.OrderAssembled, domain.VehicleBicycle)
	cancelled := testOrder(4, 1, domain.OrderCancelled, taxiOrBicycle)
	orders := []*domain.Order{shared, received, tooFar, cancelled}

	res, err := d.CreateShopDeliveries(context.Background(), ShopDeliveriesRequest{
		Shop:     testShop(),
		Orders:   orders,
		Couriers: []*domain.Courier{testTaxi(100), testBicycle(200)},
		CalcTime: calcTime,
	})
	require.NoError(t, err)

	assertPartition(t, orders, res)
	assert.Equal(t, [][]int64{{1}}, deliveryOrderIDs(res.Assembled))
	assert.Empty(t, res.Pending)

	reasons := make(map[int64]domain.RejectionReason)
	for _, o := range res.Undelivered {
		reasons[o.OrderID] = o.RejectionReason
	}
	assert.Equal(t, map[int64]domain.RejectionReason{
		2: domain.RejectionUnreachable,
		3: domain.RejectionNoRoute,
		4: domain.RejectionNotDispatchable,
	}, reasons)
}

func TestCreateShopDeliveriesCourierOnlyPriority(t *testing.T) {
	d, _ := newTestDispatcher()

	shared := testOrder(1, 1, domain.OrderAssembled, taxiOrBicycle)
	bikeOnly := testOrder(2, 2, domain.OrderAssembled, domain.VehicleBicycle)
	orders := []*domain.Order{shared, bikeOnly}

	bike := testBicycle(200)
	bike.MaxOrders = 1

	res, err := d.CreateShopDeliveries(context.Background(), ShopDeliveriesRequest{
		Shop:     testShop(),
		Orders:   orders,
		Couriers: []*domain.Courier{testTaxi(100), bike},
		CalcTime: calcTime,
	})
	require.NoError(t, err)

	assertPartition(t, orders, res)
	assert.Equal(t, [][]int64{{2}, {1}}, deliveryOrderIDs(res.Assembled))
	assert.Equal(t, []int64{200, 100}, deliveryCourierIDs(res.Assembled))
	assert.Empty(t, res.Undelivered)
}

func TestCreateShopDeliveriesIsRepeatable(t *testing.T) {
	d, _ := newTestDispatcher()

	build := func() ShopDeliveriesRequest {
		return ShopDeliveriesRequest{
			Shop: testShop(),
			Orders: []*domain.Order{
				testOrder(1, 1, domain.OrderAssembled, taxiOrBicycle),
				testOrder(2, -2, domain.OrderReceived, taxiOrBicycle),
				testOrder(3, 3, domain.OrderAssembled, domain.VehicleBicycle),
				testOrder(4, 2, domain.OrderAssembled, taxiOrBicycle),
			},
			Couriers: []*domain.Courier{testTaxi(100), testBicycle(200), testBicycle(201)},
			CalcTime: calcTime,
		}
	}

	first, err := d.CreateShopDeliveries(context.Background(), build())
	require.NoError(t, err)
	second, err := d.CreateShopDeliveries(context.Background(), build())
	require.NoError(t, err)

	assert.Equal(t, summarize(first), summarize(second))
}

func TestCreateShopDeliveriesInvalidInput(t *testing.T) {
	d, _ := newTestDispatcher()
	order := testOrder(1, 1, domain.OrderAssembled, taxiOrBicycle)

	tests := []struct {
		name string
		req  ShopDeliveriesRequest
	}{
		{name: "no shop", req: ShopDeliveriesRequest{Orders: []*domain.Order{order}, Couriers: []*domain.Courier{testTaxi(1)}}},
		{name: "no orders", req: ShopDeliveriesRequest{Shop: testShop(), Couriers: []*domain.Courier{testTaxi(1)}}},
		{name: "no couriers", req: ShopDeliveriesRequest{Shop: testShop(), Orders: []*domain.Order{order}}},
		{name: "duplicate order", req: ShopDeliveriesRequest{Shop: testShop(), Orders: []*domain.Order{order, order}, Couriers: []*domain.Courier{testTaxi(1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.CreateShopDeliveries(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, 101, ErrorCode(err))
		})
	}
}

func TestCreateShopDeliveriesMatrixFailure(t *testing.T) {
	d, provider := newTestDispatcher()
	provider.FailFor(domain.VehicleTaxiEconomy, errors.New("quota exceeded"))

	res, err := d.CreateShopDeliveries(context.Background(), ShopDeliveriesRequest{
		Shop:     testShop(),
		Orders:   []*domain.Order{testOrder(1, 1, domain.OrderAssembled, taxiOrBicycle)},
		Couriers: []*domain.Courier{testTaxi(100), testBicycle(200)},
		CalcTime: calcTime,
	})
	require.Error(t, err)
	assert.Nil(t, res)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageMatrix, se.Stage)
	assert.Equal(t, 302, ErrorCode(err))
	assert.Equal(t, "matrix_unavailable", Kind(err))
}
