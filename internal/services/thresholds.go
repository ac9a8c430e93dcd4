package services

import "fmt"

// Thresholds holds, per tier k, the order-count ceiling below which subsets of
// up to k orders are enumerated. Index 0 is unused.
type Thresholds [MaxSubsetSize + 1]int

func DefaultThresholds() Thresholds {
	return Thresholds{
		1: 1_000_000,
		2: 1000,
		3: 56,
		4: 48,
		5: 40,
		6: 32,
		7: 24,
		8: 14,
	}
}

// WithOverrides returns a copy with the given tier ceilings replaced.
func (t Thresholds) WithOverrides(overrides map[int]int) (Thresholds, error) {
	out := t
	for tier, ceiling := range overrides {
		if tier < 1 || tier > MaxSubsetSize {
			return t, fmt.Errorf("thresholds: tier %d out of range 1..%d", tier, MaxSubsetSize)
		}
		if ceiling <= 0 {
			return t, fmt.Errorf("thresholds: tier %d ceiling must be positive, got %d", tier, ceiling)
		}
		out[tier] = ceiling
	}
	return out, nil
}

// MaxSubsetSize picks the largest tier whose ceiling is above orderCount.
// When no tier admits the count, single-order deliveries are still enumerated.
func (t Thresholds) MaxSubsetSize(orderCount int) int {
	for k := MaxSubsetSize; k >= 1; k-- {
		if orderCount < t[k] {
			return k
		}
	}
	return 1
}
