package reservations

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/yardops-backend/internal/capacity"
	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
)

// Window is a closed date range; both bounds are inclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// Overlaps uses the closed-closed test start₁ ≤ end₂ ∧ start₂ ≤ end₁, so a
// hold ending on the day a window starts still counts.
func (w Window) Overlaps(start, end time.Time) bool {
	return !start.After(w.End) && !w.Start.After(end)
}

// Valid reports whether the window is non-empty.
func (w Window) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && !w.End.Before(w.Start)
}

// Resolution is the outcome of a planning query over candidate racks.
type Resolution struct {
	AvailableByRack map[uuid.UUID]decimal.Decimal `json:"available_by_rack"`
	TotalAvailable  decimal.Decimal               `json:"total_available"`
	Required        decimal.Decimal               `json:"required"`
	Sufficient      bool                          `json:"sufficient"`
}

// Shortfall is how much is missing; zero when sufficient.
func (r Resolution) Shortfall() decimal.Decimal {
	if r.Sufficient {
		return decimal.Zero
	}
	return r.Required.Sub(r.TotalAvailable)
}

// Resolve computes per-rack availability from nominal capacity minus the
// ACTIVE reservations overlapping window. Released or non-overlapping holds
// are ignored, so callers may pass a superset.
func Resolve(racks []models.Rack, holds []models.RackReservation, window Window, required decimal.Decimal) Resolution {
	reserved := make(map[uuid.UUID]decimal.Decimal, len(racks))
	for _, hold := range holds {
		if hold.Status != enums.ReservationStatusActive {
			continue
		}
		if !window.Overlaps(hold.StartDate, hold.EndDate) {
			continue
		}
		reserved[hold.RackID] = reserved[hold.RackID].Add(hold.ReservedQuantity)
	}

	res := Resolution{
		AvailableByRack: make(map[uuid.UUID]decimal.Decimal, len(racks)),
		TotalAvailable:  decimal.Zero,
		Required:        required,
	}
	for _, rack := range racks {
		available := capacity.AllocationOf(rack).Capacity().Sub(reserved[rack.ID])
		if available.IsNegative() {
			available = decimal.Zero
		}
		res.AvailableByRack[rack.ID] = available
		res.TotalAvailable = res.TotalAvailable.Add(available)
	}
	res.Sufficient = res.TotalAvailable.GreaterThanOrEqual(required)
	return res
}
