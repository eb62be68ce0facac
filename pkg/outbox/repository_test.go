package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
)

func newOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:outbox_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.OutboxEvent{}, &models.OutboxDLQ{}))
	return db
}

func TestServiceEmitWritesEnvelope(t *testing.T) {
	db := newOutboxTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	shipmentID := uuid.New()
	actor := &ActorRef{UserID: uuid.New(), Role: "admin"}

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventTruckReceived,
			AggregateType: enums.AggregateShipment,
			AggregateID:   shipmentID,
			Actor:         actor,
			Data:          map[string]any{"itemsSettled": 2},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, shipmentID, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, actor.UserID, envelope.Actor.UserID)
	assert.JSONEq(t, `{"itemsSettled":2}`, string(envelope.Data))
}

func TestServiceEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{})
	require.Error(t, err)
}

func TestServiceEmitIfNotExistsOnlyOnce(t *testing.T) {
	db := newOutboxTestDB(t)
	svc := NewService(NewRepository(db), nil)
	shipmentID := uuid.New()
	event := DomainEvent{
		EventType:     enums.EventShipmentReceived,
		AggregateType: enums.AggregateShipment,
		AggregateID:   shipmentID,
		Data:          map[string]any{"referenceId": "REQ-1"},
	}

	var first, second bool
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		first, err = svc.EmitIfNotExists(context.Background(), tx, event)
		return err
	}))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		second, err = svc.EmitIfNotExists(context.Background(), tx, event)
		return err
	}))

	assert.True(t, first)
	assert.False(t, second)
	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	db := newOutboxTestDB(t)
	repo := NewRepository(db)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Insert(db, models.OutboxEvent{
			EventType:     enums.EventTruckReceived,
			AggregateType: enums.AggregateShipment,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
		}))
	}

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.NoError(t, repo.MarkPublishedTx(db, rows[0].ID))
	require.NoError(t, repo.MarkFailedTx(db, rows[1].ID, errors.New("transient")))
	require.NoError(t, repo.MarkTerminalTx(db, rows[2].ID, errors.New("bad payload"), 5))

	pending, err := repo.FetchUnpublishedForPublish(db, 10, 5)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, rows[1].ID, pending[0].ID)
	assert.Equal(t, 1, pending[0].AttemptCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "transient", *pending[0].LastError)
}

func TestRepositoryDeletePublishedBefore(t *testing.T) {
	db := newOutboxTestDB(t)
	repo := NewRepository(db)
	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	old := cutoff.Add(-48 * time.Hour)
	recent := cutoff.Add(48 * time.Hour)

	rows := []models.OutboxEvent{
		{CreatedAt: old, PublishedAt: &old},
		{CreatedAt: recent, PublishedAt: &recent},
		{CreatedAt: old, AttemptCount: 5},
		{CreatedAt: old, AttemptCount: 1},
	}
	for i := range rows {
		rows[i].EventType = enums.EventTruckReceived
		rows[i].AggregateType = enums.AggregateShipment
		rows[i].AggregateID = uuid.New()
		rows[i].Payload = json.RawMessage(`{}`)
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	deleted, err := repo.DeletePublishedBefore(context.Background(), db, cutoff, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var remaining []models.OutboxEvent
	require.NoError(t, db.Order("attempt_count ASC").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	assert.Equal(t, rows[1].ID, remaining[0].ID)
	assert.Equal(t, rows[3].ID, remaining[1].ID)
}

func TestDLQRepositoryInsertFindList(t *testing.T) {
	db := newOutboxTestDB(t)
	dlq := NewDLQRepository(db)
	eventID := uuid.New()
	long := make([]byte, maxLastErrorLen+50)
	for i := range long {
		long[i] = 'x'
	}
	msg := string(long)

	require.NoError(t, dlq.InsertTx(db, models.OutboxDLQ{
		EventID:       eventID,
		EventType:     enums.EventShipmentReceived,
		AggregateType: enums.AggregateShipment,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &msg,
	}))

	found, err := dlq.FindByEventID(context.Background(), eventID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.ErrorMessage)
	assert.Len(t, *found.ErrorMessage, maxLastErrorLen)

	missing, err := dlq.FindByEventID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := dlq.List(context.Background(), DLQFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = dlq.List(context.Background(), DLQFilter{Reason: enums.OutboxDLQReasonNonRetryable})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDLQRepositoryRejectsUnknownReason(t *testing.T) {
	db := newOutboxTestDB(t)
	err := NewDLQRepository(db).InsertTx(db, models.OutboxDLQ{
		EventID:     uuid.New(),
		EventType:   enums.EventTruckReceived,
		Payload:     json.RawMessage(`{}`),
		ErrorReason: "gave_up",
	})
	require.Error(t, err)
}

func TestDLQRepositoryDeleteFailedBefore(t *testing.T) {
	db := newOutboxTestDB(t)
	dlq := NewDLQRepository(db)
	now := time.Now().UTC()
	for _, failedAt := range []time.Time{now.Add(-100 * 24 * time.Hour), now.Add(-time.Hour)} {
		require.NoError(t, dlq.InsertTx(db, models.OutboxDLQ{
			EventID:       uuid.New(),
			EventType:     enums.EventAppointmentSynced,
			AggregateType: enums.AggregateDockAppointment,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
			ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
			FailedAt:      failedAt,
		}))
	}

	deleted, err := dlq.DeleteFailedBefore(context.Background(), db, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	list, err := dlq.List(context.Background(), DLQFilter{EventType: enums.EventAppointmentSynced})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
