package models

import (
	"time"

	"github.com/google/uuid"
)

// Yard is the top-level storage site.
type Yard struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Area groups racks inside a yard.
type Area struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	YardID    uuid.UUID `gorm:"column:yard_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
