package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/yardops-backend/pkg/enums"
	"github.com/angelmondragon/yardops-backend/pkg/outbox"
)

// Decoder turns the data field of an envelope into a typed payload.
type Decoder func(data json.RawMessage) (any, error)

type decoderKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry maps (event type, envelope version) to a Decoder. It is
// safe for concurrent use by Pub/Sub receive callbacks.
type DecoderRegistry struct {
	mu       sync.RWMutex
	decoders map[decoderKey]Decoder
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: make(map[decoderKey]Decoder)}
}

// Register replaces any decoder already bound to the same key.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[decoderKey{eventType, version}] = decoder
}

func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, data json.RawMessage) (any, error) {
	r.mu.RLock()
	decoder, ok := r.decoders[decoderKey{eventType, version}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no decoder for %s v%d", eventType, version)
	}
	return decoder(data)
}

// DecodedMessage is a parsed Pub/Sub body.
type DecodedMessage struct {
	EventID  uuid.UUID
	Envelope outbox.PayloadEnvelope
	Payload  any
}

// DecodeMessage parses the envelope in body and decodes its data with the
// decoder registered for its version.
func (r *DecoderRegistry) DecodeMessage(eventType enums.OutboxEventType, body []byte) (DecodedMessage, error) {
	env, id, err := outbox.ParseEnvelope(body)
	if err != nil {
		return DecodedMessage{}, err
	}
	payload, err := r.Decode(eventType, env.Version, env.Data)
	if err != nil {
		return DecodedMessage{}, fmt.Errorf("event %s: %w", id, err)
	}
	return DecodedMessage{EventID: id, Envelope: env, Payload: payload}, nil
}

// JSONDecoder unmarshals into a fresh *T.
func JSONDecoder[T any]() Decoder {
	return func(data json.RawMessage) (any, error) {
		out := new(T)
		if err := json.Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("decode %T: %w", *out, err)
		}
		return out, nil
	}
}
