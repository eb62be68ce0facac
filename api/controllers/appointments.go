package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/yardops-backend/api/middleware"
	"github.com/angelmondragon/yardops-backend/api/responses"
	"github.com/angelmondragon/yardops-backend/api/validators"
	"github.com/angelmondragon/yardops-backend/internal/calendar"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
)

type appointmentResponse struct {
	ID                 uuid.UUID                `json:"id"`
	ShipmentID         uuid.UUID                `json:"shipment_id"`
	TruckID            *uuid.UUID               `json:"truck_id,omitempty"`
	Status             enums.AppointmentStatus  `json:"status"`
	CalendarSyncStatus enums.CalendarSyncStatus `json:"calendar_sync_status"`
	CalendarEventID    *string                  `json:"calendar_event_id,omitempty"`
	SlotStart          *time.Time               `json:"slot_start,omitempty"`
	SlotEnd            *time.Time               `json:"slot_end,omitempty"`
	AfterHours         bool                     `json:"after_hours"`
	Reminder24hAt      *time.Time               `json:"reminder_24h_at"`
	Reminder1hAt       *time.Time               `json:"reminder_1h_at"`
	LastSyncedAt       *time.Time               `json:"last_synced_at,omitempty"`
}

func SyncAppointmentCalendar(svc calendar.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appointmentID, err := validators.ParseUUIDParam(r, "appointmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, role := middleware.ActorFromContext(r.Context())
		appt, err := svc.SyncAppointment(r.Context(), calendar.SyncInput{
			AppointmentID: appointmentID,
			ActorUserID:   actorID,
			ActorRole:     role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, appointmentResponse{
			ID:                 appt.ID,
			ShipmentID:         appt.ShipmentID,
			TruckID:            appt.TruckID,
			Status:             appt.Status,
			CalendarSyncStatus: appt.CalendarSyncStatus,
			CalendarEventID:    appt.CalendarEventID,
			SlotStart:          appt.SlotStart,
			SlotEnd:            appt.SlotEnd,
			AfterHours:         appt.AfterHours,
			Reminder24hAt:      appt.Reminder24hAt,
			Reminder1hAt:       appt.Reminder1hAt,
			LastSyncedAt:       appt.LastSyncedAt,
		})
	}
}
