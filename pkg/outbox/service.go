// Package outbox writes domain events into outbox_events inside the caller's
// transaction. cmd/outbox-publisher ships them to Pub/Sub afterwards.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/yardops-backend/pkg/db"
	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
)

// uniqueEventConstraint backs EmitIfNotExists for single-fire events.
const uniqueEventConstraint = "ux_outbox_events_event_aggregate"

var errNoTx = errors.New("outbox: transaction required")

// DomainEvent is what services hand to the outbox. Data is marshalled into
// the envelope's data field.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

func (e DomainEvent) validate() error {
	switch {
	case !e.EventType.IsValid():
		return fmt.Errorf("outbox: unknown event type %q", e.EventType)
	case !e.AggregateType.IsValid():
		return fmt.Errorf("outbox: unknown aggregate type %q", e.AggregateType)
	case e.AggregateID == uuid.Nil:
		return fmt.Errorf("outbox: %s has no aggregate id", e.EventType)
	}
	return nil
}

type eventStore interface {
	Insert(tx *gorm.DB, event models.OutboxEvent) error
	ExistsTx(tx *gorm.DB, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) (bool, error)
}

type Service struct {
	repo eventStore
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo eventStore, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// Emit inserts event with tx so the row commits or rolls back together with
// the state change that produced it.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errNoTx
	}
	row, envelope, err := s.buildRow(event)
	if err != nil {
		return err
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return fmt.Errorf("outbox: insert %s: %w", event.EventType, err)
	}
	if s.logg != nil {
		logCtx := s.logg.WithAggregate(ctx, string(event.AggregateType), event.AggregateID.String())
		s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
			"event_id":   envelope.EventID,
			"event_type": event.EventType,
		}), "outbox.event_queued")
	}
	return nil
}

func (s *Service) buildRow(event DomainEvent) (models.OutboxEvent, PayloadEnvelope, error) {
	if err := event.validate(); err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, err
	}
	data, err := json.Marshal(event.Data)
	if err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("outbox: marshal %s payload: %w", event.EventType, err)
	}
	envelope := PayloadEnvelope{
		Version:    max(event.Version, CurrentEnvelopeVersion),
		EventID:    uuid.NewString(),
		OccurredAt: event.OccurredAt.UTC(),
		Actor:      event.Actor,
		Data:       data,
	}
	if event.OccurredAt.IsZero() {
		envelope.OccurredAt = s.now().UTC()
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("outbox: marshal envelope: %w", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       body,
	}, envelope, nil
}

// EmitIfNotExists emits at most once per (event type, aggregate) and reports
// whether a row was written. Losing the unique index race to a concurrent
// insert counts as already emitted.
func (s *Service) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event DomainEvent) (bool, error) {
	if tx == nil {
		return false, errNoTx
	}
	exists, err := s.repo.ExistsTx(tx, event.EventType, event.AggregateType, event.AggregateID)
	if err != nil {
		return false, fmt.Errorf("outbox: lookup %s: %w", event.EventType, err)
	}
	if exists {
		return false, nil
	}
	err = s.Emit(ctx, tx, event)
	switch {
	case err == nil:
		return true, nil
	case dbpkg.IsUniqueViolation(err, uniqueEventConstraint):
		return false, nil
	default:
		return false, err
	}
}
