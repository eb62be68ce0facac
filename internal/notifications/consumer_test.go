package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/yardops-backend/pkg/enums"
	"github.com/angelmondragon/yardops-backend/pkg/outbox"
	"github.com/angelmondragon/yardops-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/yardops-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/yardops-backend/pkg/outbox/registry"
)

type memoryStore struct {
	keys   map[string]bool
	setErr error
}

func (m *memoryStore) Get(context.Context, string) (string, error) { return "", nil }

func (m *memoryStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if m.setErr != nil {
		return false, m.setErr
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

func newTestConsumer(t *testing.T, mailer *fakeMailer, store *memoryStore) *Consumer {
	t.Helper()
	svc, err := NewService(mailer, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	manager, err := idempotency.NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventShipmentReceived, 1, registry.JSONDecoder[payloads.ShipmentReceivedEvent]())
	return &Consumer{service: svc, idempotency: manager, decoders: decoders, logg: testLogger()}
}

func envelopeBytes(t *testing.T, eventID uuid.UUID, event payloads.ShipmentReceivedEvent) []byte {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	raw, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: event.ReceivedAt,
		Data:       data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return raw
}

var shipmentReceivedAttrs = map[string]string{"event_type": string(enums.EventShipmentReceived)}

func TestConsumerSendsOncePerEvent(t *testing.T) {
	mailer := &fakeMailer{}
	consumer := newTestConsumer(t, mailer, &memoryStore{keys: map[string]bool{}})
	data := envelopeBytes(t, uuid.New(), sampleEvent())

	first := consumer.process(context.Background(), "m-1", shipmentReceivedAttrs, data)
	second := consumer.process(context.Background(), "m-2", shipmentReceivedAttrs, data)

	if !first.ack || !second.ack {
		t.Fatalf("expected both deliveries acked, got %+v %+v", first, second)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected exactly one email for a redelivered event, got %d", len(mailer.sent))
	}
}

func TestConsumerAcksWhenSendFails(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("sendgrid down")}
	consumer := newTestConsumer(t, mailer, &memoryStore{keys: map[string]bool{}})

	result := consumer.process(context.Background(), "m-1", shipmentReceivedAttrs, envelopeBytes(t, uuid.New(), sampleEvent()))
	if !result.ack || result.nack {
		t.Fatalf("expected ack after send failure, got %+v", result)
	}
}

func TestConsumerNacksWhenIdempotencyUnavailable(t *testing.T) {
	mailer := &fakeMailer{}
	consumer := newTestConsumer(t, mailer, &memoryStore{keys: map[string]bool{}, setErr: errors.New("redis down")})

	result := consumer.process(context.Background(), "m-1", shipmentReceivedAttrs, envelopeBytes(t, uuid.New(), sampleEvent()))
	if !result.nack {
		t.Fatalf("expected nack, got %+v", result)
	}
	if len(mailer.sent) != 0 {
		t.Fatal("no email should be sent without an idempotency mark")
	}
}

func TestConsumerSkipsOtherEventsAndBadPayloads(t *testing.T) {
	mailer := &fakeMailer{}
	consumer := newTestConsumer(t, mailer, &memoryStore{keys: map[string]bool{}})

	other := consumer.process(context.Background(), "m-1", map[string]string{"event_type": string(enums.EventTruckReceived)}, []byte(`{}`))
	garbled := consumer.process(context.Background(), "m-2", shipmentReceivedAttrs, []byte(`not json`))
	noID := consumer.process(context.Background(), "m-3", shipmentReceivedAttrs, []byte(`{"version":1,"eventId":"nope","data":{}}`))

	for _, result := range []processResult{other, garbled, noID} {
		if !result.ack {
			t.Fatalf("expected ack, got %+v", result)
		}
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no emails, got %d", len(mailer.sent))
	}
}
