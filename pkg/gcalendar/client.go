package gcalendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/angelmondragon/yardops-backend/pkg/config"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
)

const (
	defaultCalendarID = "primary"
	defaultTimeout    = 10 * time.Second
	reminderMethod    = "popup"
)

var errServiceRequired = errors.New("calendar service is required")

// DockAppointment is the event the yard schedules for one truck slot.
type DockAppointment struct {
	AppointmentID uuid.UUID
	ShipmentID    uuid.UUID
	TruckID       *uuid.UUID
	CompanyName   string
	ReferenceID   string
	SlotStart     time.Time
	SlotEnd       time.Time
	AfterHours    bool
	// EventID is set when the appointment was synced before; the event is
	// updated in place instead of duplicated.
	EventID string
}

// Client schedules dock appointments on a shared Google Calendar.
type Client struct {
	events     *calendar.EventsService
	calendarID string
	timeZone   string
	timeout    time.Duration
	logg       *logger.Logger
}

// NewClient builds a Calendar v3 client from the service configuration. Extra
// options are appended after the credential options (tests use them to point
// at a local server).
func NewClient(ctx context.Context, cfg config.CalendarConfig, logg *logger.Logger, extra ...option.ClientOption) (*Client, error) {
	opts := []option.ClientOption{option.WithScopes(calendar.CalendarEventsScope)}
	if creds := strings.TrimSpace(cfg.CredentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}
	opts = append(opts, extra...)

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}
	return newClient(svc, cfg, logg)
}

func newClient(svc *calendar.Service, cfg config.CalendarConfig, logg *logger.Logger) (*Client, error) {
	if svc == nil {
		return nil, errServiceRequired
	}
	calendarID := strings.TrimSpace(cfg.CalendarID)
	if calendarID == "" {
		calendarID = defaultCalendarID
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		events:     svc.Events,
		calendarID: calendarID,
		timeZone:   cfg.TimeZone,
		timeout:    timeout,
		logg:       logg,
	}, nil
}

// ScheduleDockAppointment creates or updates the calendar event for the
// appointment and returns its event id. An event that was deleted on the
// calendar side is recreated.
func (c *Client) ScheduleDockAppointment(ctx context.Context, appt DockAppointment) (string, error) {
	if c == nil || c.events == nil {
		return "", errServiceRequired
	}
	if appt.SlotStart.IsZero() || appt.SlotEnd.IsZero() {
		return "", errors.New("slot start and end are required")
	}
	if !appt.SlotEnd.After(appt.SlotStart) {
		return "", errors.New("slot end must be after slot start")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	event := c.buildEvent(appt)
	if appt.EventID != "" {
		updated, err := c.events.Update(c.calendarID, appt.EventID, event).Context(callCtx).Do()
		if err == nil {
			return updated.Id, nil
		}
		if !isGone(err) {
			return "", fmt.Errorf("update calendar event %s: %w", appt.EventID, err)
		}
		if c.logg != nil {
			logCtx := c.logg.WithFields(ctx, map[string]any{
				"calendar_event_id": appt.EventID,
				"appointment_id":    appt.AppointmentID.String(),
			})
			c.logg.Warn(logCtx, "calendar event missing; recreating")
		}
	}

	created, err := c.events.Insert(c.calendarID, event).Context(callCtx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}
	return created.Id, nil
}

func (c *Client) buildEvent(appt DockAppointment) *calendar.Event {
	summary := fmt.Sprintf("Dock: %s (%s)", appt.CompanyName, appt.ReferenceID)
	if appt.AfterHours {
		summary += " [after hours]"
	}
	private := map[string]string{
		"appointmentId": appt.AppointmentID.String(),
		"shipmentId":    appt.ShipmentID.String(),
	}
	description := fmt.Sprintf("Shipment %s", appt.ShipmentID)
	if appt.TruckID != nil {
		private["truckId"] = appt.TruckID.String()
		description += fmt.Sprintf("\nTruck %s", appt.TruckID)
	}

	return &calendar.Event{
		Summary:     summary,
		Description: description,
		Start: &calendar.EventDateTime{
			DateTime: appt.SlotStart.Format(time.RFC3339),
			TimeZone: c.timeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: appt.SlotEnd.Format(time.RFC3339),
			TimeZone: c.timeZone,
		},
		ExtendedProperties: &calendar.EventExtendedProperties{Private: private},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: reminderMethod, Minutes: 24 * 60},
				{Method: reminderMethod, Minutes: 60},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
}

func isGone(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone
	}
	return false
}
