package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/angelmondragon/yardops-backend/pkg/db/types"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
)

// StorageRequest is a customer's need for rack space over a window.
type StorageRequest struct {
	ID              uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID       uuid.UUID                  `gorm:"column:company_id;type:uuid;not null;index"`
	ReferenceID     string                     `gorm:"column:reference_id;not null"`
	RequiredJoints  int                        `gorm:"column:required_joints;not null"`
	StartDate       time.Time                  `gorm:"column:start_date;not null"`
	EndDate         time.Time                  `gorm:"column:end_date;not null"`
	Status          enums.StorageRequestStatus `gorm:"column:status;type:text;not null"`
	AssignedRackIDs dbtypes.UUIDArray          `gorm:"column:assigned_rack_ids"`
	InternalNotes   *string                    `gorm:"column:internal_notes"`
	ApprovedAt      *time.Time                 `gorm:"column:approved_at"`
	ApprovedBy      *uuid.UUID                 `gorm:"column:approved_by;type:uuid"`
	RejectedAt      *time.Time                 `gorm:"column:rejected_at"`
	RejectionReason *string                    `gorm:"column:rejection_reason"`
	CreatedAt       time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
