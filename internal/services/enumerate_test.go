package services

import (
	"context"
	"courier-dispatch-service/internal/adapters/distance"
	"courier-dispatch-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enumerateRequest(t *testing.T, c *domain.Courier, orders []*domain.Order) EnumerateRequest {
	t.Helper()

	shop := testShop()
	points := make([]domain.Coordinates, 0, len(orders)+1)
	for _, o := range orders {
		points = append(points, o.Position)
	}
	points = append(points, shop.Position)

	m, err := distance.NewMockMatrixProvider(nil).Matrix(context.Background(), points, c.VehicleType)
	require.NoError(t, err)

	return EnumerateRequest{
		Shop:         shop,
		Orders:       orders,
		Courier:      c.Unconstrained(),
		Loop:         !c.IsTaxi(),
		CalcTime:     calcTime,
		Matrix:       m,
		Permutations: NewPermutations(),
		Thresholds:   DefaultThresholds(),
	}
}

func TestEnumerateDeliveriesKeepsFirstOnCostTie(t *testing.T) {
	o1 := testOrder(1, 1, domain.OrderAssembled, taxiOrBicycle)
	o2 := testOrder(2, -1, domain.OrderAssembled, taxiOrBicycle)

	ds, err := EnumerateDeliveries(context.Background(), enumerateRequest(t, testTaxi(1), []*domain.Order{o1, o2}))
	require.NoError(t, err)

	require.Equal(t, [][]int64{{1}, {2}, {1, 2}}, deliveryOrderIDs(ds))

	// shop -> o1 (1km) -> o2 (2km), both directions cost the same.
	pair := ds[2]
	assert.Equal(t, 3000, pair.DistanceMeters)
	assert.InDelta(t, 9.0, pair.Cost, 1e-9)
	assert.InDelta(t, 4.5, pair.OrderCost, 1e-9)
	assert.False(t, pair.Loop)
}

func TestEnumerateDeliveriesPicksCheapestOrdering(t *testing.T) {
	far := testOrder(1, 2, domain.OrderAssembled, taxiOrBicycle)
	near := testOrder(2, 1, domain.OrderAssembled, taxiOrBicycle)

	ds, err := EnumerateDeliveries(context.Background(), enumerateRequest(t, testTaxi(1), []*domain.Order{far, near}))
	require.NoError(t, err)
	require.Len(t, ds, 3)

	// One-way: near then far is 2km, far then near is 3km.
	assert.Equal(t, []int64{2, 1}, ds[2].OrderIDs())
	assert.Equal(t, 2000, ds[2].DistanceMeters)
}

func TestEnumerateDeliveriesRespectsSubsetSizeLimit(t *testing.T) {
	orders := make([]*domain.Order, 0, 5)
	for i := 1; i <= 5; i++ {
		orders = append(orders, testOrder(int64(i), float64(i), domain.OrderAssembled, taxiOrBicycle))
	}

	req := enumerateRequest(t, testTaxi(1), orders)
	req.Thresholds = Thresholds{1: 1_000_000, 2: 1000}

	ds, err := EnumerateDeliveries(context.Background(), req)
	require.NoError(t, err)

	// 5 singles and 10 pairs.
	require.Len(t, ds, 15)
	for _, d := range ds {
		assert.LessOrEqual(t, d.OrderCount, 2)
	}
}

func TestEnumerateDeliveriesSubsetSizeFollowsBatchSize(t *testing.T) {
	orders := []*domain.Order{
		testOrder(1, 1, domain.OrderAssembled, domain.VehicleBicycle),
		testOrder(2, 2, domain.OrderAssembled, domain.VehicleBicycle),
		testOrder(3, 1, domain.OrderAssembled, domain.VehicleOnFoot),
		testOrder(4, 2, domain.OrderAssembled, domain.VehicleOnFoot),
	}

	req := enumerateRequest(t, testBicycle(1), orders)
	// Two carriable orders would allow pairs, but the batch of four does not.
	req.Thresholds = Thresholds{1: 1_000_000, 2: 3}

	ds, err := EnumerateDeliveries(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, [][]int64{{1}, {2}}, deliveryOrderIDs(ds))
}

func TestEnumerateDeliveriesSkipsIncompatibleAndInfeasible(t *testing.T) {
	ok := testOrder(1, 1, domain.OrderAssembled, taxiOrBicycle)
	onFoot := testOrder(2, 1, domain.OrderAssembled, domain.VehicleOnFoot)
	tooFar := testOrder(3, 50, domain.OrderAssembled, domain.VehicleBicycle)

	ds, err := EnumerateDeliveries(context.Background(), enumerateRequest(t, testBicycle(1), []*domain.Order{ok, onFoot, tooFar}))
	require.NoError(t, err)

	assert.Equal(t, [][]int64{{1}}, deliveryOrderIDs(ds))
	assert.True(t, ds[0].Loop)
}

func TestEnumerateDeliveriesInvalidInput(t *testing.T) {
	req := enumerateRequest(t, testTaxi(1), []*domain.Order{testOrder(1, 1, domain.OrderAssembled, taxiOrBicycle)})

	noShop := req
	noShop.Shop = nil
	_, err := EnumerateDeliveries(context.Background(), noShop)
	assert.ErrorIs(t, err, ErrInvalidInput)

	noOrders := req
	noOrders.Orders = nil
	_, err = EnumerateDeliveries(context.Background(), noOrders)
	assert.ErrorIs(t, err, ErrInvalidInput)

	noMatrix := req
	noMatrix.Matrix = nil
	_, err = EnumerateDeliveries(context.Background(), noMatrix)
	assert.ErrorIs(t, err, ErrMatrixUnavailable)
}
