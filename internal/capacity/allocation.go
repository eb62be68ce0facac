package capacity

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
)

// Allocation is a rack's capacity expressed in its own unit. Callers work
// against Capacity/Occupied and never branch on the mode themselves.
type Allocation interface {
	Mode() enums.AllocationMode
	Capacity() decimal.Decimal
	Occupied() decimal.Decimal
}

// SlotAllocation counts discrete positions (joints).
type SlotAllocation struct {
	Slots  int
	Filled int
}

func (a SlotAllocation) Mode() enums.AllocationMode { return enums.AllocationModeSlot }
func (a SlotAllocation) Capacity() decimal.Decimal  { return decimal.NewFromInt(int64(a.Slots)) }
func (a SlotAllocation) Occupied() decimal.Decimal  { return decimal.NewFromInt(int64(a.Filled)) }

// LinearAllocation measures continuous length in metres.
type LinearAllocation struct {
	Meters     decimal.Decimal
	UsedMeters decimal.Decimal
}

func (a LinearAllocation) Mode() enums.AllocationMode { return enums.AllocationModeLinear }
func (a LinearAllocation) Capacity() decimal.Decimal  { return a.Meters }
func (a LinearAllocation) Occupied() decimal.Decimal  { return a.UsedMeters }

// AllocationOf reads the rack columns that match its allocation mode.
// Unknown modes are treated as SLOT, the column default.
func AllocationOf(rack models.Rack) Allocation {
	if rack.AllocationMode == enums.AllocationModeLinear {
		return LinearAllocation{Meters: rack.CapacityMeters, UsedMeters: rack.OccupiedMeters}
	}
	return SlotAllocation{Slots: rack.Capacity, Filled: rack.Occupied}
}

// Free is capacity minus occupancy, floored at zero.
func Free(a Allocation) decimal.Decimal {
	return floorZero(a.Capacity().Sub(a.Occupied()))
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// FitsAfter reports whether adding qty keeps occupancy within capacity.
func FitsAfter(a Allocation, qty decimal.Decimal) bool {
	return a.Occupied().Add(qty).LessThanOrEqual(a.Capacity())
}
