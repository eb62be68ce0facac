package approvals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/internal/reservations"
	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/yardops-backend/pkg/errors"
	"github.com/angelmondragon/yardops-backend/pkg/outbox"
)

type gormTx struct {
	db *gorm.DB
}

func (g gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:approvals_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.StorageRequest{},
		&models.Rack{},
		&models.RackReservation{},
		&models.OutboxEvent{},
	))
	return db
}

func newIntegrationService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	resolver, err := reservations.NewService(reservations.NewRepository(db))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(db),
		Tx:       gormTx{db: db},
		Resolver: resolver,
		Outbox:   outbox.NewService(outbox.NewRepository(db), testLogger()),
		Logger:   testLogger(),
		Clock:    func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc
}

func TestApproveAgainstDatabase(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	request := pendingRequest()
	require.NoError(t, db.Create(request).Error)
	rack := models.Rack{AreaID: uuid.New(), Name: "A-1", AllocationMode: enums.AllocationModeSlot, Capacity: 150}
	require.NoError(t, db.Create(&rack).Error)
	hold := models.RackReservation{
		RackID:           rack.ID,
		StartDate:        time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		ReservedQuantity: decimal.NewFromInt(60),
		Status:           enums.ReservationStatusActive,
	}
	require.NoError(t, db.Create(&hold).Error)

	svc := newIntegrationService(t, db)

	_, err := svc.Approve(ctx, ApproveInput{RequestID: request.ID, RackIDs: []uuid.UUID{rack.ID}, ActorUserID: uuid.New()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientCapacity), "got %v", err)

	var stored models.StorageRequest
	require.NoError(t, db.First(&stored, "id = ?", request.ID).Error)
	assert.Equal(t, enums.StorageRequestStatusPending, stored.Status)
	assert.Nil(t, stored.ApprovedAt)

	hold.Status = enums.ReservationStatusReleased
	require.NoError(t, db.Save(&hold).Error)

	result, err := svc.Approve(ctx, ApproveInput{RequestID: request.ID, RackIDs: []uuid.UUID{rack.ID}, ActorUserID: uuid.New()})
	require.NoError(t, err)
	assert.True(t, result.Resolution.TotalAvailable.Equal(decimal.NewFromInt(150)))

	require.NoError(t, db.First(&stored, "id = ?", request.ID).Error)
	assert.Equal(t, enums.StorageRequestStatusApproved, stored.Status)
	assert.Equal(t, []uuid.UUID{rack.ID}, []uuid.UUID(stored.AssignedRackIDs))
	require.NotNil(t, stored.ApprovedBy)

	var events int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventStorageRequestApproved).Count(&events).Error)
	assert.Equal(t, int64(1), events)

	_, err = svc.Reject(ctx, RejectInput{RequestID: request.ID, Reason: "late", ActorUserID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestTransitionFromPendingIsConditional(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	request := pendingRequest()
	require.NoError(t, db.Create(request).Error)
	repo := NewRepository(db)

	changed, err := repo.TransitionFromPending(ctx, request.ID, map[string]any{"status": enums.StorageRequestStatusRejected})
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.TransitionFromPending(ctx, request.ID, map[string]any{"status": enums.StorageRequestStatusApproved})
	require.NoError(t, err)
	assert.False(t, changed)

	found, err := repo.FindStorageRequest(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.StorageRequestStatusRejected, found.Status)
}
