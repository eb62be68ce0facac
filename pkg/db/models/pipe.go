package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/yardops-backend/pkg/enums"
)

// Pipe is an inventory lot held in the yard for a company.
type Pipe struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID    uuid.UUID        `gorm:"column:company_id;type:uuid;not null;index"`
	RackID       *uuid.UUID       `gorm:"column:rack_id;type:uuid;index"`
	Status       enums.PipeStatus `gorm:"column:status;type:text;not null"`
	Quantity     int              `gorm:"column:quantity;not null;default:0"`
	LengthMeters decimal.Decimal  `gorm:"column:length_meters;type:numeric(12,2);not null;default:0"`
	DropOffAt    *time.Time       `gorm:"column:drop_off_at"`
	PickedUpAt   *time.Time       `gorm:"column:picked_up_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
