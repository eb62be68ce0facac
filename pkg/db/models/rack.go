package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/yardops-backend/pkg/enums"
)

// Rack is the smallest storage unit. SLOT racks use Capacity/Occupied,
// LINEAR racks use CapacityMeters/OccupiedMeters; the other pair stays zero.
type Rack struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	AreaID         uuid.UUID            `gorm:"column:area_id;type:uuid;not null;index"`
	Name           string               `gorm:"column:name;not null"`
	AllocationMode enums.AllocationMode `gorm:"column:allocation_mode;type:text;not null"`
	Capacity       int                  `gorm:"column:capacity;not null;default:0"`
	Occupied       int                  `gorm:"column:occupied;not null;default:0"`
	CapacityMeters decimal.Decimal      `gorm:"column:capacity_meters;type:numeric(12,2);not null;default:0"`
	OccupiedMeters decimal.Decimal      `gorm:"column:occupied_meters;type:numeric(12,2);not null;default:0"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// RackReservation is a soft, time-bounded hold on rack capacity.
type RackReservation struct {
	ID               uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	RackID           uuid.UUID               `gorm:"column:rack_id;type:uuid;not null;index"`
	StorageRequestID *uuid.UUID              `gorm:"column:storage_request_id;type:uuid"`
	StartDate        time.Time               `gorm:"column:start_date;not null"`
	EndDate          time.Time               `gorm:"column:end_date;not null"`
	ReservedQuantity decimal.Decimal         `gorm:"column:reserved_quantity;type:numeric(12,2);not null"`
	Status           enums.ReservationStatus `gorm:"column:status;type:text;not null"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
