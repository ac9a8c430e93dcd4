package services

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"courier-dispatch-service/internal/metrics"
	"courier-dispatch-service/internal/platform/obs"
	"fmt"
	"log"
	"time"
)

type ShopDeliveriesRequest struct {
	Shop     *domain.Shop
	Orders   []*domain.Order
	Couriers []*domain.Courier
	// CalcTime defaults to now.
	CalcTime time.Time
}

// ShopDeliveries partitions a shop's batch. Every input order appears exactly
// once: inside an Assembled or Pending delivery, or in Undelivered with a
// rejection reason set.
type ShopDeliveries struct {
	CalcTime    time.Time
	Assembled   []*domain.Delivery
	Pending     []*domain.Delivery
	Undelivered []*domain.Order
}

// CreateShopDeliveries plans one shop's batch. Assembled deliveries are bound
// to couriers and can leave now; pending deliveries are the best plan for
// orders still being assembled and are advisory. The call writes
// RejectionReason on undelivered orders and is otherwise free of side effects
// on its inputs, so calling it twice with the same inputs yields the same plan.
func (d *Dispatcher) CreateShopDeliveries(ctx context.Context, req ShopDeliveriesRequest) (_ *ShopDeliveries, err error) {
	defer obs.Time(ctx, "dispatch.create_shop_deliveries")(&err)

	if req.CalcTime.IsZero() {
		req.CalcTime = time.Now()
	}

	summary := fmt.Sprintf("orders=%d couriers=%d", len(req.Orders), len(req.Couriers))
	if req.Shop != nil {
		summary = fmt.Sprintf("shop_id=%d %s", req.Shop.ShopID, summary)
	}

	if err := runStage(ctx, StageValidate, summary, func(context.Context) error {
		return validateShopDeliveries(req)
	}); err != nil {
		return nil, err
	}

	var eligible, rejected []*domain.Order
	if err := runStage(ctx, StageEligibility, summary, func(context.Context) error {
		eligible, rejected = FilterEligible(req.Orders, req.Couriers, req.CalcTime)
		return nil
	}); err != nil {
		return nil, err
	}

	if len(eligible) == 0 {
		countUndelivered(rejected)
		return &ShopDeliveries{
			CalcTime:    req.CalcTime,
			Assembled:   []*domain.Delivery{},
			Pending:     []*domain.Delivery{},
			Undelivered: rejected,
		}, nil
	}

	var pool []*domain.Delivery
	if err := runStage(ctx, StageEnumerate, summary, func(ctx context.Context) error {
		var err error
		pool, err = d.EnumerateByVehicleType(ctx, EnumerateByVehicleTypeRequest{
			Shop:     req.Shop,
			Orders:   eligible,
			Couriers: req.Couriers,
			CalcTime: req.CalcTime,
		})
		return err
	}); err != nil {
		return nil, err
	}

	var anyOrder *cover
	if err := runStage(ctx, StageCover, summary, func(ctx context.Context) error {
		var err error
		anyOrder, err = d.buildCover(ctx, coverRequest{
			Shop:       req.Shop,
			Deliveries: pool,
			Orders:     eligible,
			Couriers:   req.Couriers,
		})
		return err
	}); err != nil {
		return nil, err
	}

	var assembled *cover
	if err := runStage(ctx, StageTierSplit, summary, func(ctx context.Context) error {
		var err error
		assembled, err = d.splitByCourierTier(ctx, coverRequest{
			Shop:          req.Shop,
			Deliveries:    pool,
			Orders:        eligible,
			AssembledOnly: true,
			Couriers:      req.Couriers,
		})
		return err
	}); err != nil {
		return nil, err
	}

	var out *ShopDeliveries
	if err := runStage(ctx, StageClassify, summary, func(ctx context.Context) error {
		out = classify(ctx, eligible, rejected, anyOrder, assembled)
		return nil
	}); err != nil {
		return nil, err
	}
	out.CalcTime = req.CalcTime

	return out, nil
}

func validateShopDeliveries(req ShopDeliveriesRequest) error {
	if req.Shop == nil {
		return fmt.Errorf("%w: shop must be non-nil", ErrInvalidInput)
	}
	if len(req.Orders) == 0 {
		return fmt.Errorf("%w: orders must be non-empty", ErrInvalidInput)
	}
	if len(req.Couriers) == 0 {
		return fmt.Errorf("%w: couriers must be non-empty", ErrInvalidInput)
	}

	seen := make(map[int64]bool, len(req.Orders))
	for i, o := range req.Orders {
		if o == nil {
			return fmt.Errorf("%w: order at index %d is nil", ErrInvalidInput, i)
		}
		if seen[o.OrderID] {
			return fmt.Errorf("%w: duplicate order_id=%d", ErrInvalidInput, o.OrderID)
		}
		seen[o.OrderID] = true
	}
	for i, c := range req.Couriers {
		if c == nil {
			return fmt.Errorf("%w: courier at index %d is nil", ErrInvalidInput, i)
		}
	}
	return nil
}

// classify splits the surviving orders between the two covers. A first-pass
// delivery is pending when it still waits on assembly, shares no order with
// the assembled plan and carries no assembled order that plan left out.
// Assembled orders outside the assembled plan have no route;
// received orders outside every pending delivery are unreachable for now.
func classify(ctx context.Context, eligible, rejected []*domain.Order, anyOrder, assembled *cover) *ShopDeliveries {
	assembledIDs := make(map[int64]bool)
	for _, dlv := range assembled.Deliveries {
		for _, o := range dlv.Orders {
			assembledIDs[o.OrderID] = true
		}
	}

	pending := []*domain.Delivery{}
	pendingIDs := make(map[int64]bool)
	for _, dlv := range anyOrder.Deliveries {
		if !waitsOnAssembly(dlv) || touchesAny(dlv, assembledIDs) || strandsAssembled(dlv, assembledIDs) {
			continue
		}
		pending = append(pending, dlv)
		for _, o := range dlv.Orders {
			pendingIDs[o.OrderID] = true
		}
	}

	undelivered := make([]*domain.Order, 0, len(rejected))
	undelivered = append(undelivered, rejected...)

	for i, o := range eligible {
		if assembledIDs[o.OrderID] || pendingIDs[o.OrderID] {
			continue
		}
		if o.IsAssembled() {
			o.Reject(domain.RejectionNoRoute)
		} else {
			o.Reject(domain.RejectionUnreachable)
			if !anyOrder.Covered[i] {
				log.Printf("req_id=%s op=classify order_id=%d status=%s msg=unreachable", obs.RequestID(ctx), o.OrderID, o.Status)
			}
		}
		undelivered = append(undelivered, o)
	}

	metrics.OrdersClassified.WithLabelValues("assembled").Add(float64(len(assembledIDs)))
	metrics.OrdersClassified.WithLabelValues("pending").Add(float64(len(pendingIDs)))
	countUndelivered(undelivered)

	return &ShopDeliveries{
		Assembled:   assembled.Deliveries,
		Pending:     pending,
		Undelivered: undelivered,
	}
}

func waitsOnAssembly(dlv *domain.Delivery) bool {
	for _, o := range dlv.Orders {
		if !o.IsAssembled() {
			return true
		}
	}
	return false
}

// strandsAssembled reports whether dlv carries an assembled order the
// assembled plan did not reach.
func strandsAssembled(dlv *domain.Delivery, assembledIDs map[int64]bool) bool {
	for _, o := range dlv.Orders {
		if o.IsAssembled() && !assembledIDs[o.OrderID] {
			return true
		}
	}
	return false
}

func countUndelivered(orders []*domain.Order) {
	for _, o := range orders {
		metrics.OrdersClassified.WithLabelValues(string(o.RejectionReason)).Inc()
	}
}

// runStage runs one pipeline step, tagging its failure with the stage and
// turning a panic into an error.
func runStage(ctx context.Context, stage Stage, summary string, fn func(context.Context) error) (err error) {
	defer obs.Time(ctx, "dispatch."+stage.String())(&err)

	defer func() {
		if r := recover(); r != nil {
			err = &StageError{Stage: stage, Err: fmt.Errorf("%w: %v", ErrStagePanic, r)}
		}
		if err != nil {
			log.Printf("req_id=%s stage=%s %s code=%d err=%v", obs.RequestID(ctx), stage, summary, ErrorCode(err), err)
		}
	}()

	if err := fn(ctx); err != nil {
		return stageError(stage, err)
	}
	return nil
}
