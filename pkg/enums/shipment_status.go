package enums

import "fmt"

// ShipmentStatus tracks an inbound shipment from drafting to receipt.
type ShipmentStatus string

const (
	ShipmentStatusDraft      ShipmentStatus = "DRAFT"
	ShipmentStatusScheduling ShipmentStatus = "SCHEDULING"
	ShipmentStatusScheduled  ShipmentStatus = "SCHEDULED"
	ShipmentStatusInTransit  ShipmentStatus = "IN_TRANSIT"
	ShipmentStatusReceived   ShipmentStatus = "RECEIVED"
	ShipmentStatusCancelled  ShipmentStatus = "CANCELLED"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusDraft,
	ShipmentStatusScheduling,
	ShipmentStatusScheduled,
	ShipmentStatusInTransit,
	ShipmentStatusReceived,
	ShipmentStatusCancelled,
}

// String implements fmt.Stringer.
func (v ShipmentStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ShipmentStatus.
func (v ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseShipmentStatus converts raw input into a ShipmentStatus.
func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	for _, candidate := range validShipmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment status %q", value)
}

// IsTerminal reports whether no further receiving transitions are allowed.
func (v ShipmentStatus) IsTerminal() bool {
	return v == ShipmentStatusReceived || v == ShipmentStatusCancelled
}
