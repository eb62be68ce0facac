package notifications

import (
	"context"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/yardops-backend/pkg/enums"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
	"github.com/angelmondragon/yardops-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/yardops-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/yardops-backend/pkg/outbox/registry"
)

const shipmentReceivedConsumer = "shipment-received-email"

// Consumer turns shipment_received events into the customer email. Delivery
// is at most once: a send failure is logged and the message is still acked.
type Consumer struct {
	service      Service
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

// NewConsumer builds the shipment received email consumer.
func NewConsumer(service Service, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if service == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventShipmentReceived, 1, registry.JSONDecoder[payloads.ShipmentReceivedEvent]())
	return &Consumer{
		service:      service,
		subscription: subscription,
		idempotency:  manager,
		decoders:     decoders,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg.ID, msg.Attributes, msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, messageID string, attributes map[string]string, data []byte) processResult {
	eventType := attributes["event_type"]
	fields := map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if eventType != string(enums.EventShipmentReceived) {
		c.logg.Info(logCtx, "skipping event")
		return processResult{ack: true}
	}

	msg, err := c.decoders.DecodeMessage(enums.EventShipmentReceived, data)
	if err != nil {
		c.logg.Error(logCtx, "undecodable message dropped", err)
		return processResult{ack: true}
	}
	eventID := msg.EventID
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	payload, ok := msg.Payload.(*payloads.ShipmentReceivedEvent)
	if !ok {
		c.logg.Warn(logCtx, "unexpected payload type dropped")
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "shipment_id", payload.ShipmentID.String())

	claim, err := c.idempotency.Claim(ctx, shipmentReceivedConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !claim.First {
		c.logg.Info(c.logg.WithField(logCtx, "claimed_by", claim.Owner), "event already processed")
		return processResult{ack: true}
	}

	if err := c.service.SendShipmentReceived(logCtx, *payload); err != nil {
		c.logg.Error(logCtx, "shipment received email failed", err)
	}
	return processResult{ack: true}
}
