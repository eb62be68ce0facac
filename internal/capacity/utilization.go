package capacity

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/yardops-backend/pkg/db/models"
)

// Utilization aggregates a container's racks per unit. A yard holding both
// kinds of rack reports both figures.
type Utilization struct {
	RackCount      int             `json:"rack_count"`
	SlotCapacity   int             `json:"slot_capacity"`
	SlotOccupied   int             `json:"slot_occupied"`
	SlotPercent    decimal.Decimal `json:"slot_percent"`
	LinearCapacity decimal.Decimal `json:"linear_capacity_meters"`
	LinearOccupied decimal.Decimal `json:"linear_occupied_meters"`
	LinearPercent  decimal.Decimal `json:"linear_percent"`
}

// Summarize sums racks by allocation mode.
func Summarize(racks []models.Rack) Utilization {
	u := Utilization{
		RackCount:      len(racks),
		LinearCapacity: decimal.Zero,
		LinearOccupied: decimal.Zero,
	}
	for _, rack := range racks {
		alloc := AllocationOf(rack)
		switch a := alloc.(type) {
		case SlotAllocation:
			u.SlotCapacity += a.Slots
			u.SlotOccupied += a.Filled
		case LinearAllocation:
			u.LinearCapacity = u.LinearCapacity.Add(a.Meters)
			u.LinearOccupied = u.LinearOccupied.Add(a.UsedMeters)
		}
	}
	u.SlotPercent = percent(decimal.NewFromInt(int64(u.SlotOccupied)), decimal.NewFromInt(int64(u.SlotCapacity)))
	u.LinearPercent = percent(u.LinearOccupied, u.LinearCapacity)
	return u
}

// percent returns occupied/capacity*100 rounded to two places; zero capacity is 0%.
func percent(occupied, capacity decimal.Decimal) decimal.Decimal {
	if !capacity.IsPositive() {
		return decimal.Zero
	}
	return occupied.Mul(decimal.NewFromInt(100)).Div(capacity).Round(2)
}
