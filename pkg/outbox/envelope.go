package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CurrentEnvelopeVersion is stamped on every envelope the service writes.
const CurrentEnvelopeVersion = 1

// ActorRef names the operator behind an event. Settlement recovery and
// other system jobs leave it nil.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role,omitempty"`
}

// PayloadEnvelope wraps every payload_json row and Pub/Sub message body.
// Data is decoded against Version by the consumer.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// ParseEnvelope reads a message body. Version 0 is read as 1 for rows
// written before the field existed.
func ParseEnvelope(body []byte) (PayloadEnvelope, uuid.UUID, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return PayloadEnvelope{}, uuid.Nil, fmt.Errorf("decode envelope: %w", err)
	}
	id, err := uuid.Parse(env.EventID)
	if err != nil {
		return PayloadEnvelope{}, uuid.Nil, fmt.Errorf("envelope event id %q: %w", env.EventID, err)
	}
	if data := bytes.TrimSpace(env.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return PayloadEnvelope{}, uuid.Nil, errors.New("envelope has no data")
	}
	if env.Version == 0 {
		env.Version = CurrentEnvelopeVersion
	}
	return env, id, nil
}
