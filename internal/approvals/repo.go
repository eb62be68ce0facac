package approvals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/internal/repo"
	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
)

// Repository persists storage request decisions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindStorageRequest(ctx context.Context, id uuid.UUID) (*models.StorageRequest, error)
	FindStorageRequestForUpdate(ctx context.Context, id uuid.UUID) (*models.StorageRequest, error)
	// TransitionFromPending applies updates only while the request is still
	// PENDING and reports whether the row changed.
	TransitionFromPending(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a storage request repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindStorageRequest(ctx context.Context, id uuid.UUID) (*models.StorageRequest, error) {
	var request models.StorageRequest
	if err := r.DB(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindStorageRequestForUpdate(ctx context.Context, id uuid.UUID) (*models.StorageRequest, error) {
	var request models.StorageRequest
	err := r.ForUpdate(ctx).
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) TransitionFromPending(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	result := r.DB(ctx).
		Model(&models.StorageRequest{}).
		Where("id = ? AND status = ?", id, enums.StorageRequestStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
