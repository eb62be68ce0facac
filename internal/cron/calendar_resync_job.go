package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/yardops-backend/internal/calendar"
	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
)

const defaultResyncBatch = 100

type appointmentSyncer interface {
	ListPendingSync(ctx context.Context, limit int) ([]uuid.UUID, error)
	SyncAppointment(ctx context.Context, input calendar.SyncInput) (*models.DockAppointment, error)
}

type CalendarResyncJobParams struct {
	Logger    *logger.Logger
	Calendar  appointmentSyncer
	BatchSize int
}

// NewCalendarResyncJob pushes appointments still marked PENDING to the
// calendar. Failed appointments stay PENDING for the next cycle.
func NewCalendarResyncJob(params CalendarResyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Calendar == nil {
		return nil, fmt.Errorf("calendar service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultResyncBatch
	}
	return &calendarResyncJob{logg: params.Logger, calendar: params.Calendar, batch: batch}, nil
}

type calendarResyncJob struct {
	logg     *logger.Logger
	calendar appointmentSyncer
	batch    int
}

func (j *calendarResyncJob) Name() string { return "calendar-resync" }

func (j *calendarResyncJob) Run(ctx context.Context) error {
	ids, err := j.calendar.ListPendingSync(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list pending appointments: %w", err)
	}

	var errs error
	synced := 0
	for _, id := range ids {
		if _, err := j.calendar.SyncAppointment(ctx, calendar.SyncInput{AppointmentID: id}); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("appointment %s: %w", id, err))
			continue
		}
		synced++
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"pending": len(ids),
		"synced":  synced,
		"failed":  len(ids) - synced,
	}), "calendar resync complete")
	return errs
}
