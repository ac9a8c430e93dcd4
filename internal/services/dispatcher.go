package services

import (
	"context"
	"courier-dispatch-service/internal/domain"
	"courier-dispatch-service/internal/ports"
)

type DispatcherConfig struct {
	Thresholds Thresholds
	// Workers bounds concurrent matrix fetches and enumeration units.
	Workers int
}

// Dispatcher turns a shop's orders and couriers into delivery assignments.
// It is safe for concurrent use; the permutation table is shared by all calls.
type Dispatcher struct {
	provider     ports.DistanceMatrixProvider
	permutations *Permutations
	thresholds   Thresholds
	workers      int
	// enumerate runs one vehicle-type unit; replaced in tests.
	enumerate func(ctx context.Context, req EnumerateRequest) ([]*domain.Delivery, error)
}

func NewDispatcher(provider ports.DistanceMatrixProvider, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = len(domain.AllVehicleTypes)
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}

	return &Dispatcher{
		provider:     provider,
		permutations: NewPermutations(),
		thresholds:   cfg.Thresholds,
		workers:      cfg.Workers,
		enumerate:    EnumerateDeliveries,
	}
}
