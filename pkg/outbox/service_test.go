package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
)

type memoryEvents struct {
	rows      []models.OutboxEvent
	exists    bool
	insertErr error
}

func (m *memoryEvents) Insert(_ *gorm.DB, event models.OutboxEvent) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.rows = append(m.rows, event)
	return nil
}

func (m *memoryEvents) ExistsTx(*gorm.DB, enums.OutboxEventType, enums.OutboxAggregateType, uuid.UUID) (bool, error) {
	return m.exists, nil
}

func truckReceived() DomainEvent {
	return DomainEvent{
		EventType:     enums.EventTruckReceived,
		AggregateType: enums.AggregateShipment,
		AggregateID:   uuid.New(),
		Actor:         &ActorRef{UserID: uuid.New(), Role: "yard"},
		Data:          map[string]any{"truckId": "T-9"},
	}
}

func TestEmitWritesEnvelope(t *testing.T) {
	store := &memoryEvents{}
	svc := NewService(store, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.FixedZone("CST", -6*3600)) }
	event := truckReceived()

	require.NoError(t, svc.Emit(context.Background(), &gorm.DB{}, event))
	require.Len(t, store.rows, 1)

	row := store.rows[0]
	assert.NotEqual(t, uuid.Nil, row.ID)
	assert.Equal(t, event.AggregateID, row.AggregateID)

	env, id, err := ParseEnvelope(row.Payload)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, CurrentEnvelopeVersion, env.Version)
	assert.Equal(t, time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), env.OccurredAt)
	assert.Equal(t, "yard", env.Actor.Role)
	assert.JSONEq(t, `{"truckId":"T-9"}`, string(env.Data))
}

func TestEmitRejectsInvalidEvents(t *testing.T) {
	svc := NewService(&memoryEvents{}, nil)

	assert.ErrorIs(t, svc.Emit(context.Background(), nil, truckReceived()), errNoTx)

	noAggregate := truckReceived()
	noAggregate.AggregateID = uuid.Nil
	assert.ErrorContains(t, svc.Emit(context.Background(), &gorm.DB{}, noAggregate), "no aggregate id")

	badType := truckReceived()
	badType.EventType = "truck_departed"
	assert.ErrorContains(t, svc.Emit(context.Background(), &gorm.DB{}, badType), "unknown event type")

	unmarshalable := truckReceived()
	unmarshalable.Data = make(chan int)
	assert.Error(t, svc.Emit(context.Background(), &gorm.DB{}, unmarshalable))
}

func TestEmitIfNotExists(t *testing.T) {
	ctx := context.Background()

	store := &memoryEvents{}
	queued, err := NewService(store, nil).EmitIfNotExists(ctx, &gorm.DB{}, truckReceived())
	require.NoError(t, err)
	assert.True(t, queued)

	store = &memoryEvents{exists: true}
	queued, err = NewService(store, nil).EmitIfNotExists(ctx, &gorm.DB{}, truckReceived())
	require.NoError(t, err)
	assert.False(t, queued)
	assert.Empty(t, store.rows)

	raced := &pgconn.PgError{Code: "23505", ConstraintName: uniqueEventConstraint}
	store = &memoryEvents{insertErr: fmt.Errorf("create: %w", raced)}
	queued, err = NewService(store, nil).EmitIfNotExists(ctx, &gorm.DB{}, truckReceived())
	require.NoError(t, err)
	assert.False(t, queued)

	store = &memoryEvents{insertErr: errors.New("connection reset")}
	_, err = NewService(store, nil).EmitIfNotExists(ctx, &gorm.DB{}, truckReceived())
	assert.ErrorContains(t, err, "connection reset")
}

func TestParseEnvelopeRejectsNullData(t *testing.T) {
	body, err := json.Marshal(PayloadEnvelope{EventID: uuid.NewString(), Data: json.RawMessage("null")})
	require.NoError(t, err)

	_, _, err = ParseEnvelope(body)
	assert.ErrorContains(t, err, "no data")
}
