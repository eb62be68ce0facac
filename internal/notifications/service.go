package notifications

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/yardops-backend/pkg/errors"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
	"github.com/angelmondragon/yardops-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/yardops-backend/pkg/sendgrid"
)

// Mailer delivers a single email.
type Mailer interface {
	Send(ctx context.Context, msg sendgrid.Message) error
}

// Service sends customer-facing emails for receiving milestones.
type Service interface {
	SendShipmentReceived(ctx context.Context, event payloads.ShipmentReceivedEvent) error
}

type service struct {
	mailer Mailer
	logg   *logger.Logger
}

// NewService wires the email service.
func NewService(mailer Mailer, logg *logger.Logger) (Service, error) {
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{mailer: mailer, logg: logg}, nil
}

func (s *service) SendShipmentReceived(ctx context.Context, event payloads.ShipmentReceivedEvent) error {
	if strings.TrimSpace(event.Recipient) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient required")
	}
	msg := ComposeShipmentReceived(event)
	if err := s.mailer.Send(ctx, msg); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"shipment_id": event.ShipmentID.String(),
		"recipient":   event.Recipient,
	}), "shipment received email sent")
	return nil
}

// ComposeShipmentReceived renders the customer email for a fully received shipment.
func ComposeShipmentReceived(event payloads.ShipmentReceivedEvent) sendgrid.Message {
	receivedAt := event.ReceivedAt.UTC().Format(time.RFC1123)
	subject := fmt.Sprintf("Shipment %s received", event.ReferenceID)

	var text strings.Builder
	fmt.Fprintf(&text, "Hello %s,\n\n", event.CompanyName)
	fmt.Fprintf(&text, "All trucks for shipment %s have been received at the yard.\n\n", event.ReferenceID)
	fmt.Fprintf(&text, "Trucks received: %d\n", event.TrucksReceived)
	fmt.Fprintf(&text, "Manifest lines: %d\n", event.ManifestLines)
	fmt.Fprintf(&text, "Documents attached: %d\n", event.DocumentsAttached)
	fmt.Fprintf(&text, "Received at: %s\n", receivedAt)

	var body strings.Builder
	fmt.Fprintf(&body, "<p>Hello %s,</p>", html.EscapeString(event.CompanyName))
	fmt.Fprintf(&body, "<p>All trucks for shipment <strong>%s</strong> have been received at the yard.</p>", html.EscapeString(event.ReferenceID))
	body.WriteString("<ul>")
	fmt.Fprintf(&body, "<li>Trucks received: %d</li>", event.TrucksReceived)
	fmt.Fprintf(&body, "<li>Manifest lines: %d</li>", event.ManifestLines)
	fmt.Fprintf(&body, "<li>Documents attached: %d</li>", event.DocumentsAttached)
	fmt.Fprintf(&body, "<li>Received at: %s</li>", receivedAt)
	body.WriteString("</ul>")

	return sendgrid.Message{
		To:       event.Recipient,
		Subject:  subject,
		TextBody: text.String(),
		HTMLBody: body.String(),
	}
}
