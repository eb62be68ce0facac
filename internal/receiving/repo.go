package receiving

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/internal/repo"
	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
)

// Repository is the persistence surface of the receiving state machine.
// Every mutation is conditional so re-running a step changes nothing.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindShipmentForUpdate(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	FindTruck(ctx context.Context, shipmentID, truckID uuid.UUID) (*models.ShipmentTruck, error)
	ListReceivedTrucks(ctx context.Context, shipmentID uuid.UUID) ([]models.ShipmentTruck, error)
	MarkTruckReceived(ctx context.Context, truckID uuid.UUID, at time.Time) (bool, error)

	CompleteAppointmentsForTruck(ctx context.Context, truckID uuid.UUID) (int64, error)

	ListUnsettledItems(ctx context.Context, truckID uuid.UUID) ([]models.ShipmentItem, error)
	MarkItemInStorage(ctx context.Context, itemID uuid.UUID) (bool, error)
	FindPipe(ctx context.Context, id uuid.UUID) (*models.Pipe, error)
	MarkPipeDroppedOff(ctx context.Context, pipeID uuid.UUID, at time.Time) (bool, error)
	FindRack(ctx context.Context, id uuid.UUID) (*models.Rack, error)
	IncrementRackOccupancy(ctx context.Context, rack *models.Rack, qty decimal.Decimal) (bool, error)

	CountTrucks(ctx context.Context, shipmentID uuid.UUID) (TruckCounts, error)
	CompleteShipment(ctx context.Context, shipmentID uuid.UUID, at time.Time) (bool, error)
	LoadNotificationFacts(ctx context.Context, shipment *models.Shipment) (*NotificationFacts, error)

	ListShipmentsNeedingSettlement(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error)
	MarkSettlementFailed(ctx context.Context, shipmentID uuid.UUID, at time.Time) error
	ClearSettlementFailure(ctx context.Context, shipmentID uuid.UUID) error
}

// TruckCounts summarises a shipment's trucks for the completion check.
type TruckCounts struct {
	Received    int64
	Outstanding int64
}

// NotificationFacts is what the customer email reports.
type NotificationFacts struct {
	CompanyName       string
	Recipient         string
	TrucksReceived    int
	ManifestLines     int
	DocumentsAttached int
}

type repository struct {
	repo.Base
}

// NewRepository returns the receiving repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindShipmentForUpdate(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.ForUpdate(ctx).
		First(&shipment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) FindTruck(ctx context.Context, shipmentID, truckID uuid.UUID) (*models.ShipmentTruck, error) {
	var truck models.ShipmentTruck
	err := r.DB(ctx).
		Where("id = ? AND shipment_id = ?", truckID, shipmentID).
		First(&truck).Error
	if err != nil {
		return nil, err
	}
	return &truck, nil
}

func (r *repository) ListReceivedTrucks(ctx context.Context, shipmentID uuid.UUID) ([]models.ShipmentTruck, error) {
	var trucks []models.ShipmentTruck
	err := r.DB(ctx).
		Where("shipment_id = ? AND status = ?", shipmentID, enums.TruckStatusReceived).
		Order("sequence ASC").
		Find(&trucks).Error
	if err != nil {
		return nil, err
	}
	return trucks, nil
}

// MarkTruckReceived keeps an arrival time already recorded at the gate.
func (r *repository) MarkTruckReceived(ctx context.Context, truckID uuid.UUID, at time.Time) (bool, error) {
	result := r.DB(ctx).
		Model(&models.ShipmentTruck{}).
		Where("id = ? AND status NOT IN ?", truckID, []enums.TruckStatus{enums.TruckStatusReceived, enums.TruckStatusCancelled}).
		Updates(map[string]any{
			"status":            enums.TruckStatusReceived,
			"arrival_time":      gorm.Expr("COALESCE(arrival_time, ?)", at),
			"departure_time":    at,
			"manifest_received": true,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CompleteAppointmentsForTruck also resets the calendar sync so the event is
// rewritten as historical.
func (r *repository) CompleteAppointmentsForTruck(ctx context.Context, truckID uuid.UUID) (int64, error) {
	result := r.DB(ctx).
		Model(&models.DockAppointment{}).
		Where("truck_id = ? AND status <> ?", truckID, enums.AppointmentStatusCompleted).
		Updates(map[string]any{
			"status":               enums.AppointmentStatusCompleted,
			"calendar_sync_status": enums.CalendarSyncStatusPending,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) ListUnsettledItems(ctx context.Context, truckID uuid.UUID) ([]models.ShipmentItem, error) {
	var items []models.ShipmentItem
	err := r.DB(ctx).
		Where("truck_id = ? AND status <> ?", truckID, enums.ShipmentItemStatusInStorage).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) MarkItemInStorage(ctx context.Context, itemID uuid.UUID) (bool, error) {
	result := r.DB(ctx).
		Model(&models.ShipmentItem{}).
		Where("id = ? AND status <> ?", itemID, enums.ShipmentItemStatusInStorage).
		Update("status", enums.ShipmentItemStatusInStorage)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) FindPipe(ctx context.Context, id uuid.UUID) (*models.Pipe, error) {
	var pipe models.Pipe
	if err := r.DB(ctx).First(&pipe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pipe, nil
}

// MarkPipeDroppedOff only stamps the first drop-off, which is what gates the
// rack occupancy increment.
func (r *repository) MarkPipeDroppedOff(ctx context.Context, pipeID uuid.UUID, at time.Time) (bool, error) {
	result := r.DB(ctx).
		Model(&models.Pipe{}).
		Where("id = ? AND drop_off_at IS NULL", pipeID).
		Updates(map[string]any{
			"status":      enums.PipeStatusInStorage,
			"drop_off_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) FindRack(ctx context.Context, id uuid.UUID) (*models.Rack, error) {
	var rack models.Rack
	err := r.ForUpdate(ctx).
		First(&rack, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rack, nil
}

// IncrementRackOccupancy adds qty in the rack's own unit and reports false
// when the increment would push occupancy past capacity.
func (r *repository) IncrementRackOccupancy(ctx context.Context, rack *models.Rack, qty decimal.Decimal) (bool, error) {
	if rack == nil {
		return false, errors.New("rack required")
	}
	query := r.DB(ctx).Model(&models.Rack{}).Where("id = ?", rack.ID)

	var result *gorm.DB
	if rack.AllocationMode == enums.AllocationModeLinear {
		result = query.
			Where("occupied_meters + ? <= capacity_meters", qty).
			Update("occupied_meters", gorm.Expr("occupied_meters + ?", qty))
	} else {
		joints := qty.IntPart()
		result = query.
			Where("occupied + ? <= capacity", joints).
			Update("occupied", gorm.Expr("occupied + ?", joints))
	}
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) CountTrucks(ctx context.Context, shipmentID uuid.UUID) (TruckCounts, error) {
	var counts TruckCounts
	db := r.DB(ctx)
	if err := db.Model(&models.ShipmentTruck{}).
		Where("shipment_id = ? AND status = ?", shipmentID, enums.TruckStatusReceived).
		Count(&counts.Received).Error; err != nil {
		return counts, err
	}
	if err := db.Model(&models.ShipmentTruck{}).
		Where("shipment_id = ? AND status NOT IN ?", shipmentID, []enums.TruckStatus{enums.TruckStatusReceived, enums.TruckStatusCancelled}).
		Count(&counts.Outstanding).Error; err != nil {
		return counts, err
	}
	return counts, nil
}

// CompleteShipment is the single-fire gate: only the caller that flips the
// row gets true.
func (r *repository) CompleteShipment(ctx context.Context, shipmentID uuid.UUID, at time.Time) (bool, error) {
	result := r.DB(ctx).
		Model(&models.Shipment{}).
		Where("id = ?", shipmentID).
		Where("status NOT IN ?", []enums.ShipmentStatus{enums.ShipmentStatusReceived, enums.ShipmentStatusCancelled}).
		Where("latest_customer_notification_at IS NULL").
		Updates(map[string]any{
			"status":                          enums.ShipmentStatusReceived,
			"received_at":                     at,
			"latest_customer_notification_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) LoadNotificationFacts(ctx context.Context, shipment *models.Shipment) (*NotificationFacts, error) {
	db := r.DB(ctx)
	var company models.Company
	if err := db.First(&company, "id = ?", shipment.CompanyID).Error; err != nil {
		return nil, err
	}

	var trucks, lines, documents int64
	if err := db.Model(&models.ShipmentTruck{}).
		Where("shipment_id = ? AND status = ?", shipment.ID, enums.TruckStatusReceived).
		Count(&trucks).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ShipmentItem{}).Where("shipment_id = ?", shipment.ID).Count(&lines).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ShipmentDocument{}).Where("shipment_id = ?", shipment.ID).Count(&documents).Error; err != nil {
		return nil, err
	}

	facts := &NotificationFacts{
		CompanyName:       company.Name,
		TrucksReceived:    int(trucks),
		ManifestLines:     int(lines),
		DocumentsAttached: int(documents),
	}
	if company.ContactEmail != nil {
		facts.Recipient = *company.ContactEmail
	}
	return facts, nil
}

// ListShipmentsNeedingSettlement finds shipments touched since the cutoff
// with a received truck whose appointment or manifest is unsettled, or whose
// trucks are all in but which never completed. Shipments that failed a
// previous pass sort last, oldest failure first.
func (r *repository) ListShipmentsNeedingSettlement(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error) {
	db := r.DB(ctx)

	unsettledTruck := db.Model(&models.ShipmentTruck{}).
		Select("shipment_trucks.shipment_id").
		Where("shipment_trucks.status = ? AND shipment_trucks.updated_at >= ?", enums.TruckStatusReceived, since).
		Where(
			db.Where("EXISTS (SELECT 1 FROM shipment_items si WHERE si.truck_id = shipment_trucks.id AND si.status <> ?)", enums.ShipmentItemStatusInStorage).
				Or("EXISTS (SELECT 1 FROM dock_appointments da WHERE da.truck_id = shipment_trucks.id AND da.status <> ?)", enums.AppointmentStatusCompleted),
		)

	var ids []uuid.UUID
	err := db.Model(&models.Shipment{}).
		Where("shipments.status NOT IN ?", []enums.ShipmentStatus{enums.ShipmentStatusCancelled}).
		Where("shipments.updated_at >= ? OR shipments.id IN (?)", since, unsettledTruck).
		Where(
			db.Where("shipments.id IN (?)", unsettledTruck).
				Or(
					"shipments.status <> ? AND EXISTS (SELECT 1 FROM shipment_trucks st WHERE st.shipment_id = shipments.id AND st.status = ?) AND NOT EXISTS (SELECT 1 FROM shipment_trucks st WHERE st.shipment_id = shipments.id AND st.status NOT IN ?)",
					enums.ShipmentStatusReceived,
					enums.TruckStatusReceived,
					[]enums.TruckStatus{enums.TruckStatusReceived, enums.TruckStatusCancelled},
				),
		).
		Order("shipments.settlement_failed_at IS NOT NULL").
		Order("shipments.settlement_failed_at ASC").
		Order("shipments.updated_at ASC").
		Limit(limit).
		Pluck("shipments.id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// MarkSettlementFailed stamps a failed recovery attempt. UpdateColumn keeps
// updated_at so the lookback window is unaffected.
func (r *repository) MarkSettlementFailed(ctx context.Context, shipmentID uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.Shipment{}).
		Where("id = ?", shipmentID).
		UpdateColumn("settlement_failed_at", at).Error
}

func (r *repository) ClearSettlementFailure(ctx context.Context, shipmentID uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.Shipment{}).
		Where("id = ? AND settlement_failed_at IS NOT NULL", shipmentID).
		UpdateColumn("settlement_failed_at", nil).Error
}
