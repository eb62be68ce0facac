package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/internal/repo"
	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
)

// Repository reads racks and their reservations for resolution.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindRacks(ctx context.Context, ids []uuid.UUID) ([]models.Rack, error)
	FindRacksForUpdate(ctx context.Context, ids []uuid.UUID) ([]models.Rack, error)
	ListActiveOverlapping(ctx context.Context, rackIDs []uuid.UUID, start, end time.Time) ([]models.RackReservation, error)
	ActiveReservedByRack(ctx context.Context, rackIDs []uuid.UUID, start, end time.Time) (map[uuid.UUID]decimal.Decimal, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a reservations repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindRacks(ctx context.Context, ids []uuid.UUID) ([]models.Rack, error) {
	return r.findRacks(r.DB(ctx), ids)
}

// FindRacksForUpdate locks the rack rows in id order so concurrent approvals
// over overlapping racks serialize instead of deadlocking.
func (r *repository) FindRacksForUpdate(ctx context.Context, ids []uuid.UUID) ([]models.Rack, error) {
	return r.findRacks(r.ForUpdate(ctx), ids)
}

func (r *repository) findRacks(db *gorm.DB, ids []uuid.UUID) ([]models.Rack, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var racks []models.Rack
	if err := db.Where("id IN ?", ids).Order("id ASC").Find(&racks).Error; err != nil {
		return nil, err
	}
	return racks, nil
}

func (r *repository) ListActiveOverlapping(ctx context.Context, rackIDs []uuid.UUID, start, end time.Time) ([]models.RackReservation, error) {
	if len(rackIDs) == 0 {
		return nil, nil
	}
	var holds []models.RackReservation
	err := r.DB(ctx).
		Where("rack_id IN ?", rackIDs).
		Where("status = ?", enums.ReservationStatusActive).
		Where("start_date <= ? AND end_date >= ?", end.UTC(), start.UTC()).
		Order("start_date ASC").
		Find(&holds).Error
	if err != nil {
		return nil, err
	}
	return holds, nil
}

func (r *repository) ActiveReservedByRack(ctx context.Context, rackIDs []uuid.UUID, start, end time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	holds, err := r.ListActiveOverlapping(ctx, rackIDs, start, end)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(rackIDs))
	for _, hold := range holds {
		out[hold.RackID] = out[hold.RackID].Add(hold.ReservedQuantity)
	}
	return out, nil
}
