package capacity

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/internal/repo"
	"github.com/angelmondragon/yardops-backend/pkg/db/models"
)

// Repository reads the yard → area → rack hierarchy.
type Repository interface {
	FindYard(ctx context.Context, id uuid.UUID) (*models.Yard, error)
	FindArea(ctx context.Context, id uuid.UUID) (*models.Area, error)
	FindRack(ctx context.Context, id uuid.UUID) (*models.Rack, error)
	ListRacksByYard(ctx context.Context, yardID uuid.UUID) ([]models.Rack, error)
	ListRacksByArea(ctx context.Context, areaID uuid.UUID) ([]models.Rack, error)
}

type repository struct {
	repo.Base
}

// NewRepository binds the capacity reads to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) FindYard(ctx context.Context, id uuid.UUID) (*models.Yard, error) {
	var yard models.Yard
	if err := r.DB(ctx).First(&yard, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &yard, nil
}

func (r *repository) FindArea(ctx context.Context, id uuid.UUID) (*models.Area, error) {
	var area models.Area
	if err := r.DB(ctx).First(&area, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &area, nil
}

func (r *repository) FindRack(ctx context.Context, id uuid.UUID) (*models.Rack, error) {
	var rack models.Rack
	if err := r.DB(ctx).First(&rack, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rack, nil
}

func (r *repository) ListRacksByYard(ctx context.Context, yardID uuid.UUID) ([]models.Rack, error) {
	var racks []models.Rack
	err := r.DB(ctx).
		Joins("JOIN areas ON areas.id = racks.area_id").
		Where("areas.yard_id = ?", yardID).
		Order("racks.name ASC").
		Find(&racks).Error
	if err != nil {
		return nil, err
	}
	return racks, nil
}

func (r *repository) ListRacksByArea(ctx context.Context, areaID uuid.UUID) ([]models.Rack, error) {
	var racks []models.Rack
	if err := r.DB(ctx).Where("area_id = ?", areaID).Order("name ASC").Find(&racks).Error; err != nil {
		return nil, err
	}
	return racks, nil
}
