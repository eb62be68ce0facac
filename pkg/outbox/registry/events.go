// Package registry knows every outbox event the system emits: its
// aggregate, its Pub/Sub topic and how to decode each payload version.
package registry

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/yardops-backend/pkg/config"
	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
	"github.com/angelmondragon/yardops-backend/pkg/outbox"
	"github.com/angelmondragon/yardops-backend/pkg/outbox/payloads"
)

// EventDescriptor routes one event type.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
}

// ResolvedEvent is an outbox row that passed validation and decoding.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// NonRetryableError marks a row that will fail the same way on every
// attempt. The publisher dead-letters it immediately.
type NonRetryableError struct {
	Err error
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

// EventRegistry validates outbox rows before they are published.
type EventRegistry struct {
	routes   map[enums.OutboxEventType]EventDescriptor
	decoders *DecoderRegistry
}

// NewEventRegistry routes shipment_received to the notification topic,
// which the email worker subscribes to. Everything else goes to the domain
// topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	var missing []error
	if cfg.DomainTopic == "" {
		missing = append(missing, errors.New("domain topic is required"))
	}
	if cfg.NotificationTopic == "" {
		missing = append(missing, errors.New("notification topic is required"))
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}

	r := &EventRegistry{
		routes:   make(map[enums.OutboxEventType]EventDescriptor),
		decoders: NewDecoderRegistry(),
	}
	r.add(enums.EventStorageRequestApproved, enums.AggregateStorageRequest, cfg.DomainTopic, JSONDecoder[payloads.StorageRequestApprovedEvent]())
	r.add(enums.EventStorageRequestRejected, enums.AggregateStorageRequest, cfg.DomainTopic, JSONDecoder[payloads.StorageRequestRejectedEvent]())
	r.add(enums.EventTruckReceived, enums.AggregateShipment, cfg.DomainTopic, JSONDecoder[payloads.TruckReceivedEvent]())
	r.add(enums.EventAppointmentSynced, enums.AggregateDockAppointment, cfg.DomainTopic, JSONDecoder[payloads.AppointmentSyncedEvent]())
	r.add(enums.EventShipmentReceived, enums.AggregateShipment, cfg.NotificationTopic, JSONDecoder[payloads.ShipmentReceivedEvent]())
	return r, nil
}

func (r *EventRegistry) add(eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, topic string, v1 Decoder) {
	r.routes[eventType] = EventDescriptor{EventType: eventType, AggregateType: aggregate, Topic: topic}
	r.decoders.Register(eventType, outbox.CurrentEnvelopeVersion, v1)
}

// Resolve fails with NonRetryableError for anything a retry cannot fix.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.routes[event.EventType]
	switch {
	case !ok:
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	case desc.AggregateType != event.AggregateType:
		return nil, NewNonRetryableError(fmt.Errorf("%s belongs to %s, row has %s", event.EventType, desc.AggregateType, event.AggregateType))
	case event.AggregateID == uuid.Nil:
		return nil, NewNonRetryableError(errors.New("missing aggregate_id"))
	}

	msg, err := r.decoders.DecodeMessage(event.EventType, event.Payload)
	if err != nil {
		return nil, NewNonRetryableError(err)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: msg.Envelope, Payload: msg.Payload}, nil
}
