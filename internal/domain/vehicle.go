package domain

import (
	"fmt"
	"math/bits"
	"strings"
)

// VehicleType is a courier capability class. Values are single bits so that
// an order's enabled types can be stored as a mask of the same type.
type VehicleType uint32

const (
	VehicleTaxiEconomy VehicleType = 1 << iota
	VehicleTaxiComfort
	VehicleCar
	VehicleBicycle
	VehicleOnFoot
)

// AllVehicleTypes lists every known type in ascending bit order.
var AllVehicleTypes = []VehicleType{
	VehicleTaxiEconomy,
	VehicleTaxiComfort,
	VehicleCar,
	VehicleBicycle,
	VehicleOnFoot,
}

const taxiMask = VehicleTaxiEconomy | VehicleTaxiComfort

var vehicleNames = map[VehicleType]string{
	VehicleTaxiEconomy: "taxi-economy",
	VehicleTaxiComfort: "taxi-comfort",
	VehicleCar:         "car",
	VehicleBicycle:     "bicycle",
	VehicleOnFoot:      "on-foot",
}

func (v VehicleType) String() string {
	if name, ok := vehicleNames[v]; ok {
		return name
	}

	parts := make([]string, 0, bits.OnesCount32(uint32(v)))
	for _, t := range v.Types() {
		parts = append(parts, vehicleNames[t])
	}
	if len(parts) == 0 {
		return fmt.Sprintf("vehicle(%d)", uint32(v))
	}
	return strings.Join(parts, "|")
}

// IsTaxi reports whether v names an on-demand taxi class.
func (v VehicleType) IsTaxi() bool { return v != 0 && v&^taxiMask == 0 }

// Intersects reports whether v and mask share at least one type.
func (v VehicleType) Intersects(mask VehicleType) bool { return v&mask != 0 }

// Types splits a mask into its single-bit vehicle types, ascending.
func (v VehicleType) Types() []VehicleType {
	out := make([]VehicleType, 0, bits.OnesCount32(uint32(v)))
	for rest := uint32(v); rest != 0; rest &= rest - 1 {
		out = append(out, VehicleType(1)<<bits.TrailingZeros32(rest))
	}
	return out
}

// ParseVehicleType accepts a single name or a "|"-separated list of names.
func ParseVehicleType(s string) (VehicleType, error) {
	var out VehicleType
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		found := false
		for t, name := range vehicleNames {
			if name == part {
				out |= t
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("parse vehicle type: unknown vehicle type %q", part)
		}
	}

	if out == 0 {
		return 0, fmt.Errorf("parse vehicle type: empty value %q", s)
	}
	return out, nil
}
