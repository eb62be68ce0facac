package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/yardops-backend/pkg/errors"
	"github.com/angelmondragon/yardops-backend/pkg/gcalendar"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
	"github.com/angelmondragon/yardops-backend/pkg/metrics"
	"github.com/angelmondragon/yardops-backend/pkg/outbox"
	"github.com/angelmondragon/yardops-backend/pkg/outbox/payloads"
)

const (
	defaultSlotLength = 30 * time.Minute
	reminderDayBefore = 24 * time.Hour
	reminderHour      = time.Hour
)

// EventScheduler is the external calendar. It returns the event id.
type EventScheduler interface {
	ScheduleDockAppointment(ctx context.Context, appt gcalendar.DockAppointment) (string, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service reconciles dock appointments with the shared calendar.
type Service interface {
	SyncAppointment(ctx context.Context, input SyncInput) (*models.DockAppointment, error)
	ListPendingSync(ctx context.Context, limit int) ([]uuid.UUID, error)
}

type SyncInput struct {
	AppointmentID uuid.UUID
	ActorUserID   uuid.UUID
	ActorRole     enums.OperatorRole
}

// ServiceParams groups the calendar reconciliation dependencies.
type ServiceParams struct {
	Repo       Repository
	Tx         txRunner
	Scheduler  EventScheduler
	Outbox     outboxPublisher
	Metrics    *metrics.YardMetrics
	Logger     *logger.Logger
	Clock      func() time.Time
	SlotLength time.Duration
}

type service struct {
	repo       Repository
	tx         txRunner
	scheduler  EventScheduler
	outbox     outboxPublisher
	metrics    *metrics.YardMetrics
	logg       *logger.Logger
	clock      func() time.Time
	slotLength time.Duration
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("calendar repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Scheduler == nil {
		return nil, fmt.Errorf("calendar scheduler required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	slot := params.SlotLength
	if slot <= 0 {
		slot = defaultSlotLength
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		scheduler:  params.Scheduler,
		outbox:     params.Outbox,
		metrics:    params.Metrics,
		logg:       params.Logger,
		clock:      clock,
		slotLength: slot,
	}, nil
}

// Reminders are the notification instants kept for a slot. A reminder whose
// time has already passed is nil.
type Reminders struct {
	DayBefore  *time.Time
	HourBefore *time.Time
}

// ComputeReminders derives the 24h and 1h reminders relative to now.
func ComputeReminders(slotStart, now time.Time) Reminders {
	return Reminders{
		DayBefore:  futureOrNil(slotStart.Add(-reminderDayBefore), now),
		HourBefore: futureOrNil(slotStart.Add(-reminderHour), now),
	}
}

func futureOrNil(at, now time.Time) *time.Time {
	if !at.After(now) {
		return nil
	}
	at = at.UTC()
	return &at
}

// SyncAppointment pushes the appointment to the calendar first and records
// the outcome only after the calendar accepted it. A calendar failure leaves
// every field as it was. If receiving moved the appointment while the
// calendar call was in flight, only the event id is kept and the row stays
// PENDING for the resync job.
func (s *service) SyncAppointment(ctx context.Context, input SyncInput) (*models.DockAppointment, error) {
	if input.AppointmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appointment id required")
	}
	logCtx := s.logg.WithAggregate(ctx, string(enums.AggregateDockAppointment), input.AppointmentID.String())

	appt, err := s.repo.FindAppointment(ctx, input.AppointmentID)
	if err != nil {
		return nil, notFoundOr(err, "appointment not found", "load appointment")
	}
	if appt.SlotStart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotScheduled, "appointment has no scheduled slot")
	}
	shipment, err := s.repo.FindShipment(ctx, appt.ShipmentID)
	if err != nil {
		return nil, notFoundOr(err, "shipment not found", "load shipment")
	}
	company, err := s.repo.FindCompany(ctx, shipment.CompanyID)
	if err != nil {
		return nil, notFoundOr(err, "company not found", "load company")
	}

	now := s.clock().UTC()
	slotStart := appt.SlotStart.UTC()
	slotEnd := slotStart.Add(s.slotLength)
	if appt.SlotEnd != nil {
		slotEnd = appt.SlotEnd.UTC()
	}
	reminders := ComputeReminders(slotStart, now)

	request := gcalendar.DockAppointment{
		AppointmentID: appt.ID,
		ShipmentID:    shipment.ID,
		TruckID:       appt.TruckID,
		CompanyName:   company.Name,
		ReferenceID:   shipment.ReferenceID,
		SlotStart:     slotStart,
		SlotEnd:       slotEnd,
		AfterHours:    appt.AfterHours,
	}
	if appt.CalendarEventID != nil {
		request.EventID = *appt.CalendarEventID
	}

	eventID, err := s.scheduler.ScheduleDockAppointment(ctx, request)
	if err != nil {
		s.metrics.IncCalendarSync("failure")
		s.logg.Error(logCtx, "calendar sync failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeCollaborator, err, "calendar service unavailable")
	}

	seen := SyncState{Status: appt.Status, SyncStatus: appt.CalendarSyncStatus}
	superseded := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		updates := map[string]any{
			"calendar_sync_status": enums.CalendarSyncStatusSynced,
			"calendar_event_id":    eventID,
			"slot_end":             slotEnd,
			"reminder_24h_at":      reminders.DayBefore,
			"reminder_1h_at":       reminders.HourBefore,
			"last_synced_at":       now,
		}
		applied, err := repo.RecordSync(ctx, appt.ID, seen, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record calendar sync")
		}
		if !applied {
			// Keep the event id so the next sync patches the same event.
			superseded = true
			if err := repo.UpdateAppointment(ctx, appt.ID, map[string]any{"calendar_event_id": eventID}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record calendar event id")
			}
			return nil
		}
		promoted, err := repo.PromotePending(ctx, appt.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm appointment")
		}

		appt.CalendarSyncStatus = enums.CalendarSyncStatusSynced
		appt.CalendarEventID = &eventID
		appt.SlotEnd = &slotEnd
		appt.Reminder24hAt = reminders.DayBefore
		appt.Reminder1hAt = reminders.HourBefore
		appt.LastSyncedAt = &now
		if promoted {
			appt.Status = enums.AppointmentStatusConfirmed
		}

		var actor *outbox.ActorRef
		if input.ActorUserID != uuid.Nil {
			actor = &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole.String()}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAppointmentSynced,
			AggregateType: enums.AggregateDockAppointment,
			AggregateID:   appt.ID,
			Actor:         actor,
			OccurredAt:    now,
			Data: payloads.AppointmentSyncedEvent{
				AppointmentID:   appt.ID,
				ShipmentID:      appt.ShipmentID,
				CalendarEventID: eventID,
				SlotStart:       slotStart,
				SlotEnd:         slotEnd,
				Reminder24hAt:   reminders.DayBefore,
				Reminder1hAt:    reminders.HourBefore,
			},
		})
	})
	if err != nil {
		s.metrics.IncCalendarSync("record_failure")
		s.logg.Error(s.logg.WithField(logCtx, "calendar_event_id", eventID), "calendar event created but sync not recorded", err)
		return nil, err
	}

	if superseded {
		s.metrics.IncCalendarSync("superseded")
		s.logg.Warn(s.logg.WithField(logCtx, "calendar_event_id", eventID), "appointment changed during calendar sync; left pending for resync")
		current, err := s.repo.FindAppointment(ctx, appt.ID)
		if err != nil {
			return nil, notFoundOr(err, "appointment not found", "reload appointment")
		}
		return current, nil
	}

	s.metrics.IncCalendarSync("synced")
	s.logg.Info(s.logg.WithField(logCtx, "calendar_event_id", eventID), "appointment synced to calendar")
	return appt, nil
}

func (s *service) ListPendingSync(ctx context.Context, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 100
	}
	ids, err := s.repo.ListPendingSync(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list appointments pending sync")
	}
	return ids, nil
}

func notFoundOr(err error, message, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
