package enums

import "fmt"

// PipeStatus tracks an inventory lot held in the yard.
type PipeStatus string

const (
	PipeStatusInStorage PipeStatus = "IN_STORAGE"
	PipeStatusPickedUp  PipeStatus = "PICKED_UP"
)

var validPipeStatuses = []PipeStatus{
	PipeStatusInStorage,
	PipeStatusPickedUp,
}

// String implements fmt.Stringer.
func (v PipeStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known PipeStatus.
func (v PipeStatus) IsValid() bool {
	for _, candidate := range validPipeStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParsePipeStatus converts raw input into a PipeStatus.
func ParsePipeStatus(value string) (PipeStatus, error) {
	for _, candidate := range validPipeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pipe status %q", value)
}
