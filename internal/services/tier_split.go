package services

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"courier-dispatch-service/internal/platform/obs"
	"errors"
	"fmt"
	"log"
)

// splitByCourierTier covers the batch in two passes so that orders only a
// staff courier can reach are not starved by cheaper taxi deliveries.
//
// The priority pass considers only staff deliveries that touch a courier-only
// order and may bind any courier. The remainder pass covers what is left with
// deliveries that touch no courier-only order, using the couriers the priority
// pass did not bind. A failed pass contributes nothing; the other still runs.
func (d *Dispatcher) splitByCourierTier(ctx context.Context, req coverRequest) (*cover, error) {
	inBatch := func(o *domain.Order) bool { return !req.AssembledOnly || o.IsAssembled() }

	// Every taxi delivery in the pool is accepted: its class came from the
	// roster, and taxi binding never consumes or rescores.
	taxiReachable := make(map[int64]bool)
	for _, dlv := range req.Deliveries {
		if !dlv.IsTaxi() {
			continue
		}
		for _, o := range dlv.Orders {
			taxiReachable[o.OrderID] = true
		}
	}

	courierOnly := make(map[int64]bool)
	for _, o := range req.Orders {
		if inBatch(o) && !taxiReachable[o.OrderID] {
			courierOnly[o.OrderID] = true
		}
	}

	if len(courierOnly) == 0 {
		return d.buildCover(ctx, req)
	}

	var priorityDeliveries, remainderDeliveries []*domain.Delivery
	for _, dlv := range req.Deliveries {
		touches := touchesAny(dlv, courierOnly)
		switch {
		case touches && !dlv.IsTaxi():
			priorityDeliveries = append(priorityDeliveries, dlv)
		case !touches:
			remainderDeliveries = append(remainderDeliveries, dlv)
		}
	}

	priority, priorityErr := d.buildCover(ctx, coverRequest{
		Shop:          req.Shop,
		Deliveries:    priorityDeliveries,
		Orders:        req.Orders,
		AssembledOnly: req.AssembledOnly,
		Couriers:      req.Couriers,
	})
	if priorityErr != nil {
		log.Printf(
			"req_id=%s op=tier_split pass=priority courier_only=%d err=%v",
			obs.RequestID(ctx), len(courierOnly), priorityErr,
		)
		priority = &cover{Covered: make([]bool, len(req.Orders)), Remaining: req.Couriers}
	}

	remainderOrders := make([]*domain.Order, 0, len(req.Orders))
	for i, o := range req.Orders {
		if inBatch(o) && !courierOnly[o.OrderID] && !priority.Covered[i] {
			remainderOrders = append(remainderOrders, o)
		}
	}

	var rest *cover
	var restErr error
	if len(remainderOrders) > 0 {
		rest, restErr = d.buildCover(ctx, coverRequest{
			Shop:          req.Shop,
			Deliveries:    remainderDeliveries,
			Orders:        remainderOrders,
			AssembledOnly: req.AssembledOnly,
			Couriers:      priority.Remaining,
		})
		if restErr != nil {
			log.Printf(
				"req_id=%s op=tier_split pass=remainder orders=%d err=%v",
				obs.RequestID(ctx), len(remainderOrders), restErr,
			)
		}
	}
	if rest == nil {
		rest = &cover{Remaining: priority.Remaining}
	}

	if priorityErr != nil && restErr != nil {
		return nil, fmt.Errorf("tier split: both passes failed: %w", errors.Join(priorityErr, restErr))
	}

	out := &cover{
		Deliveries: make([]*domain.Delivery, 0, len(priority.Deliveries)+len(rest.Deliveries)),
		Covered:    make([]bool, len(req.Orders)),
		Remaining:  rest.Remaining,
	}
	out.Deliveries = append(out.Deliveries, priority.Deliveries...)
	out.Deliveries = append(out.Deliveries, rest.Deliveries...)

	index := indexOrders(req.Orders)
	for _, dlv := range out.Deliveries {
		for _, o := range dlv.Orders {
			if i, ok := index[o.OrderID]; ok {
				out.Covered[i] = true
			}
		}
	}

	return out, nil
}

func touchesAny(dlv *domain.Delivery, ids map[int64]bool) bool {
	for _, o := range dlv.Orders {
		if ids[o.OrderID] {
			return true
		}
	}
	return false
}
