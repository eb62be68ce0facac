package enums

import "fmt"

// StorageRequestStatus tracks the approval lifecycle of a customer storage request.
type StorageRequestStatus string

const (
	StorageRequestStatusPending   StorageRequestStatus = "PENDING"
	StorageRequestStatusApproved  StorageRequestStatus = "APPROVED"
	StorageRequestStatusRejected  StorageRequestStatus = "REJECTED"
	StorageRequestStatusCompleted StorageRequestStatus = "COMPLETED"
)

var validStorageRequestStatuses = []StorageRequestStatus{
	StorageRequestStatusPending,
	StorageRequestStatusApproved,
	StorageRequestStatusRejected,
	StorageRequestStatusCompleted,
}

// String implements fmt.Stringer.
func (v StorageRequestStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known StorageRequestStatus.
func (v StorageRequestStatus) IsValid() bool {
	for _, candidate := range validStorageRequestStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseStorageRequestStatus converts raw input into a StorageRequestStatus.
func ParseStorageRequestStatus(value string) (StorageRequestStatus, error) {
	for _, candidate := range validStorageRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid storage request status %q", value)
}
