package enums

import "fmt"

// ReservationStatus tracks whether a rack hold still counts against capacity.
type ReservationStatus string

const (
	ReservationStatusActive   ReservationStatus = "ACTIVE"
	ReservationStatusReleased ReservationStatus = "RELEASED"
)

var validReservationStatuses = []ReservationStatus{
	ReservationStatusActive,
	ReservationStatusReleased,
}

// String implements fmt.Stringer.
func (v ReservationStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ReservationStatus.
func (v ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseReservationStatus converts raw input into a ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	for _, candidate := range validReservationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}
