package services

import (
	"courier-dispatch-service/internal/domain"
	"slices"
	"time"
)

// FilterEligible splits orders into those worth routing and those rejected up
// front. Rejected orders get their RejectionReason set: orders whose delivery
// window has already closed are late, orders no available vehicle type may
// carry have no courier, and orders past the planning statuses are skipped.
func FilterEligible(
	orders []*domain.Order,
	couriers []*domain.Courier,
	calcTime time.Time,
) (eligible []*domain.Order, rejected []*domain.Order) {
	types := courierVehicleTypes(couriers)

	eligible = make([]*domain.Order, 0, len(orders))
	for _, o := range orders {
		switch {
		case !o.IsDispatchable():
			o.Reject(domain.RejectionNotDispatchable)
			rejected = append(rejected, o)

		case o.IsLate(calcTime):
			o.Reject(domain.RejectionLate)
			rejected = append(rejected, o)

		case !anyTypeEnabled(types, o.EnabledTypes):
			o.Reject(domain.RejectionCourierUnavailable)
			rejected = append(rejected, o)

		default:
			eligible = append(eligible, o)
		}
	}

	return eligible, rejected
}

// courierVehicleTypes returns the sorted distinct vehicle types of the couriers.
func courierVehicleTypes(couriers []*domain.Courier) []domain.VehicleType {
	types := make([]domain.VehicleType, 0, len(couriers))
	for _, c := range couriers {
		if c == nil {
			continue
		}
		types = append(types, c.VehicleType)
	}
	slices.Sort(types)
	return slices.Compact(types)
}

func anyTypeEnabled(sorted []domain.VehicleType, enabled domain.VehicleType) bool {
	for _, t := range enabled.Types() {
		if _, ok := slices.BinarySearch(sorted, t); ok {
			return true
		}
	}
	return false
}
