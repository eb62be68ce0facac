package calendar

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/internal/repo"
	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
)

// Repository persists calendar reconciliation state on dock appointments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindAppointment(ctx context.Context, id uuid.UUID) (*models.DockAppointment, error)
	FindShipment(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	FindCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, updates map[string]any) error
	RecordSync(ctx context.Context, id uuid.UUID, seen SyncState, updates map[string]any) (bool, error)
	PromotePending(ctx context.Context, id uuid.UUID) (bool, error)
	ListPendingSync(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// SyncState is the appointment state a sync was computed from.
type SyncState struct {
	Status     enums.AppointmentStatus
	SyncStatus enums.CalendarSyncStatus
}

type repository struct {
	repo.Base
}

// NewRepository returns the calendar repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindAppointment(ctx context.Context, id uuid.UUID) (*models.DockAppointment, error) {
	var appt models.DockAppointment
	if err := r.DB(ctx).First(&appt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *repository) FindShipment(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.DB(ctx).First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) FindCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.DB(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *repository) UpdateAppointment(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.DB(ctx).Model(&models.DockAppointment{}).Where("id = ?", id).Updates(updates).Error
}

// RecordSync writes updates only while the row still carries seen. A false
// result means another writer moved the appointment during the calendar call.
func (r *repository) RecordSync(ctx context.Context, id uuid.UUID, seen SyncState, updates map[string]any) (bool, error) {
	result := r.DB(ctx).
		Model(&models.DockAppointment{}).
		Where("id = ? AND status = ? AND calendar_sync_status = ?", id, seen.Status, seen.SyncStatus).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// PromotePending moves PENDING to CONFIRMED; CONFIRMED and COMPLETED are left alone.
func (r *repository) PromotePending(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.DB(ctx).
		Model(&models.DockAppointment{}).
		Where("id = ? AND status = ?", id, enums.AppointmentStatusPending).
		Update("status", enums.AppointmentStatusConfirmed)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ListPendingSync(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.DockAppointment{}).
		Where("calendar_sync_status = ? AND slot_start IS NOT NULL", enums.CalendarSyncStatusPending).
		Order("slot_start ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
