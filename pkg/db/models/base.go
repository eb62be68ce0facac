package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// assignID fills a missing primary key before insert. Postgres also defaults
// ids via gen_random_uuid(); the hook keeps sqlite-backed tests on the same path.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (m *Company) BeforeCreate(*gorm.DB) error          { assignID(&m.ID); return nil }
func (m *Yard) BeforeCreate(*gorm.DB) error             { assignID(&m.ID); return nil }
func (m *Area) BeforeCreate(*gorm.DB) error             { assignID(&m.ID); return nil }
func (m *Rack) BeforeCreate(*gorm.DB) error             { assignID(&m.ID); return nil }
func (m *RackReservation) BeforeCreate(*gorm.DB) error  { assignID(&m.ID); return nil }
func (m *StorageRequest) BeforeCreate(*gorm.DB) error   { assignID(&m.ID); return nil }
func (m *Shipment) BeforeCreate(*gorm.DB) error         { assignID(&m.ID); return nil }
func (m *ShipmentTruck) BeforeCreate(*gorm.DB) error    { assignID(&m.ID); return nil }
func (m *DockAppointment) BeforeCreate(*gorm.DB) error  { assignID(&m.ID); return nil }
func (m *ShipmentItem) BeforeCreate(*gorm.DB) error     { assignID(&m.ID); return nil }
func (m *ShipmentDocument) BeforeCreate(*gorm.DB) error { assignID(&m.ID); return nil }
func (m *Pipe) BeforeCreate(*gorm.DB) error             { assignID(&m.ID); return nil }
func (m *OutboxEvent) BeforeCreate(*gorm.DB) error      { assignID(&m.ID); return nil }
func (m *OutboxDLQ) BeforeCreate(*gorm.DB) error        { assignID(&m.ID); return nil }
