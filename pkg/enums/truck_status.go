package enums

import "fmt"

// TruckStatus tracks one physical delivery.
type TruckStatus string

const (
	TruckStatusInbound   TruckStatus = "INBOUND"
	TruckStatusScheduled TruckStatus = "SCHEDULED"
	TruckStatusOnSite    TruckStatus = "ON_SITE"
	TruckStatusReceived  TruckStatus = "RECEIVED"
	TruckStatusCancelled TruckStatus = "CANCELLED"
)

var validTruckStatuses = []TruckStatus{
	TruckStatusInbound,
	TruckStatusScheduled,
	TruckStatusOnSite,
	TruckStatusReceived,
	TruckStatusCancelled,
}

// String implements fmt.Stringer.
func (v TruckStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known TruckStatus.
func (v TruckStatus) IsValid() bool {
	for _, candidate := range validTruckStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseTruckStatus converts raw input into a TruckStatus.
func ParseTruckStatus(value string) (TruckStatus, error) {
	for _, candidate := range validTruckStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid truck status %q", value)
}

// IsOutstanding reports whether the truck still blocks shipment completion.
func (v TruckStatus) IsOutstanding() bool {
	return v != TruckStatusReceived && v != TruckStatusCancelled
}
