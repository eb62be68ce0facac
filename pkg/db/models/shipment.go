package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/yardops-backend/pkg/enums"
)

// Shipment is the logistics execution unit for an approved storage request.
type Shipment struct {
	ID                           uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	StorageRequestID             uuid.UUID            `gorm:"column:storage_request_id;type:uuid;not null;index"`
	CompanyID                    uuid.UUID            `gorm:"column:company_id;type:uuid;not null"`
	ReferenceID                  string               `gorm:"column:reference_id;not null"`
	Status                       enums.ShipmentStatus `gorm:"column:status;type:text;not null"`
	LatestCustomerNotificationAt *time.Time           `gorm:"column:latest_customer_notification_at"`
	ReceivedAt                   *time.Time           `gorm:"column:received_at"`
	SettlementFailedAt           *time.Time           `gorm:"column:settlement_failed_at"`
	CreatedAt                    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// ShipmentTruck is one physical delivery on a shipment.
type ShipmentTruck struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ShipmentID       uuid.UUID         `gorm:"column:shipment_id;type:uuid;not null;index"`
	Sequence         int               `gorm:"column:sequence;not null;default:1"`
	Status           enums.TruckStatus `gorm:"column:status;type:text;not null"`
	Carrier          *string           `gorm:"column:carrier"`
	DriverName       *string           `gorm:"column:driver_name"`
	DriverPhone      *string           `gorm:"column:driver_phone"`
	ArrivalTime      *time.Time        `gorm:"column:arrival_time"`
	DepartureTime    *time.Time        `gorm:"column:departure_time"`
	ManifestReceived bool              `gorm:"column:manifest_received;not null;default:false"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// DockAppointment is a reserved unloading slot for one truck.
type DockAppointment struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	ShipmentID         uuid.UUID                `gorm:"column:shipment_id;type:uuid;not null;index"`
	TruckID            *uuid.UUID               `gorm:"column:truck_id;type:uuid;index"`
	Status             enums.AppointmentStatus  `gorm:"column:status;type:text;not null"`
	CalendarSyncStatus enums.CalendarSyncStatus `gorm:"column:calendar_sync_status;type:text;not null"`
	CalendarEventID    *string                  `gorm:"column:calendar_event_id"`
	SlotStart          *time.Time               `gorm:"column:slot_start"`
	SlotEnd            *time.Time               `gorm:"column:slot_end"`
	AfterHours         bool                     `gorm:"column:after_hours;not null;default:false"`
	Reminder24hAt      *time.Time               `gorm:"column:reminder_24h_at"`
	Reminder1hAt       *time.Time               `gorm:"column:reminder_1h_at"`
	LastSyncedAt       *time.Time               `gorm:"column:last_synced_at"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// ShipmentItem is one manifest line carried by a truck.
type ShipmentItem struct {
	ID           uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	ShipmentID   uuid.UUID                `gorm:"column:shipment_id;type:uuid;not null;index"`
	TruckID      *uuid.UUID               `gorm:"column:truck_id;type:uuid;index"`
	PipeID       *uuid.UUID               `gorm:"column:pipe_id;type:uuid"`
	Description  *string                  `gorm:"column:description"`
	Joints       int                      `gorm:"column:joints;not null;default:0"`
	LengthMeters decimal.Decimal          `gorm:"column:length_meters;type:numeric(12,2);not null;default:0"`
	Status       enums.ShipmentItemStatus `gorm:"column:status;type:text;not null"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// ShipmentDocument records a file attached to a shipment. Storage of the
// bytes lives elsewhere; only the count matters here.
type ShipmentDocument struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ShipmentID uuid.UUID `gorm:"column:shipment_id;type:uuid;not null;index"`
	FileName   string    `gorm:"column:file_name;not null"`
	UploadedAt time.Time `gorm:"column:uploaded_at;autoCreateTime"`
}
