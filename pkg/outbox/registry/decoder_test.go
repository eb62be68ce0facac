package registry

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/yardops-backend/pkg/enums"
	"github.com/angelmondragon/yardops-backend/pkg/outbox/payloads"
)

func shipmentDecoders() *DecoderRegistry {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventShipmentReceived, 1, JSONDecoder[payloads.ShipmentReceivedEvent]())
	return reg
}

func TestDecodeReturnsTypedPayload(t *testing.T) {
	out, err := shipmentDecoders().Decode(enums.EventShipmentReceived, 1, json.RawMessage(`{"referenceId":"REQ-42","trucksReceived":3}`))
	require.NoError(t, err)

	event, ok := out.(*payloads.ShipmentReceivedEvent)
	require.True(t, ok, "unexpected output %T", out)
	assert.Equal(t, "REQ-42", event.ReferenceID)
	assert.Equal(t, 3, event.TrucksReceived)
}

func TestDecodeErrors(t *testing.T) {
	reg := shipmentDecoders()

	_, err := reg.Decode(enums.EventShipmentReceived, 2, json.RawMessage(`{}`))
	assert.ErrorContains(t, err, "no decoder")

	_, err = reg.Decode(enums.EventShipmentReceived, 1, json.RawMessage(`{`))
	assert.Error(t, err)
}

func TestDecodeMessageDefaultsVersion(t *testing.T) {
	id := uuid.New()
	body := []byte(`{"eventId":"` + id.String() + `","data":{"referenceId":"REQ-7"}}`)

	msg, err := shipmentDecoders().DecodeMessage(enums.EventShipmentReceived, body)
	require.NoError(t, err)
	assert.Equal(t, id, msg.EventID)
	assert.Equal(t, 1, msg.Envelope.Version)
	assert.Equal(t, "REQ-7", msg.Payload.(*payloads.ShipmentReceivedEvent).ReferenceID)
}

func TestDecodeMessageRejectsBadEnvelopes(t *testing.T) {
	reg := shipmentDecoders()
	for name, body := range map[string]string{
		"not json":   `nope`,
		"bad id":     `{"version":1,"eventId":"x","data":{}}`,
		"empty data": `{"version":1,"eventId":"` + uuid.NewString() + `"}`,
	} {
		_, err := reg.DecodeMessage(enums.EventShipmentReceived, []byte(body))
		assert.Error(t, err, name)
	}
}
