package enums

import "fmt"

// CalendarSyncStatus reports whether the external calendar mirrors the appointment.
type CalendarSyncStatus string

const (
	CalendarSyncStatusPending CalendarSyncStatus = "PENDING"
	CalendarSyncStatusSynced  CalendarSyncStatus = "SYNCED"
)

var validCalendarSyncStatuses = []CalendarSyncStatus{
	CalendarSyncStatusPending,
	CalendarSyncStatusSynced,
}

// String implements fmt.Stringer.
func (v CalendarSyncStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CalendarSyncStatus.
func (v CalendarSyncStatus) IsValid() bool {
	for _, candidate := range validCalendarSyncStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCalendarSyncStatus converts raw input into a CalendarSyncStatus.
func ParseCalendarSyncStatus(value string) (CalendarSyncStatus, error) {
	for _, candidate := range validCalendarSyncStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid calendar sync status %q", value)
}
