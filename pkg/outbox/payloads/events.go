package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StorageRequestApprovedEvent records a certified rack assignment.
type StorageRequestApprovedEvent struct {
	StorageRequestID uuid.UUID       `json:"storageRequestId"`
	CompanyID        uuid.UUID       `json:"companyId"`
	ReferenceID      string          `json:"referenceId"`
	AssignedRackIDs  []uuid.UUID     `json:"assignedRackIds"`
	RequiredJoints   int             `json:"requiredJoints"`
	TotalAvailable   decimal.Decimal `json:"totalAvailable"`
	ApprovedAt       time.Time       `json:"approvedAt"`
	ApprovedBy       *uuid.UUID      `json:"approvedBy,omitempty"`
}

// StorageRequestRejectedEvent records a rejection and its reason.
type StorageRequestRejectedEvent struct {
	StorageRequestID uuid.UUID `json:"storageRequestId"`
	CompanyID        uuid.UUID `json:"companyId"`
	ReferenceID      string    `json:"referenceId"`
	Reason           string    `json:"reason"`
	RejectedAt       time.Time `json:"rejectedAt"`
}

// TruckReceivedEvent is emitted the first time a truck is marked received.
type TruckReceivedEvent struct {
	ShipmentID   uuid.UUID `json:"shipmentId"`
	TruckID      uuid.UUID `json:"truckId"`
	ItemsSettled int       `json:"itemsSettled"`
	ReceivedAt   time.Time `json:"receivedAt"`
}

// ShipmentReceivedEvent carries everything the customer email needs, so the
// consumer never reads shipment state back.
type ShipmentReceivedEvent struct {
	ShipmentID        uuid.UUID `json:"shipmentId"`
	Recipient         string    `json:"recipient"`
	ReferenceID       string    `json:"referenceId"`
	CompanyName       string    `json:"companyName"`
	TrucksReceived    int       `json:"trucksReceived"`
	ManifestLines     int       `json:"manifestLines"`
	DocumentsAttached int       `json:"documentsAttached"`
	ReceivedAt        time.Time `json:"receivedAt"`
}

// AppointmentSyncedEvent mirrors a successful calendar reconciliation.
type AppointmentSyncedEvent struct {
	AppointmentID   uuid.UUID  `json:"appointmentId"`
	ShipmentID      uuid.UUID  `json:"shipmentId"`
	CalendarEventID string     `json:"calendarEventId"`
	SlotStart       time.Time  `json:"slotStart"`
	SlotEnd         time.Time  `json:"slotEnd"`
	Reminder24hAt   *time.Time `json:"reminder24hAt,omitempty"`
	Reminder1hAt    *time.Time `json:"reminder1hAt,omitempty"`
}
