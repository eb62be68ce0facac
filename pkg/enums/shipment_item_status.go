package enums

import "fmt"

// ShipmentItemStatus tracks a manifest line.
type ShipmentItemStatus string

const (
	ShipmentItemStatusPlanned   ShipmentItemStatus = "PLANNED"
	ShipmentItemStatusInTransit ShipmentItemStatus = "IN_TRANSIT"
	ShipmentItemStatusInStorage ShipmentItemStatus = "IN_STORAGE"
)

var validShipmentItemStatuses = []ShipmentItemStatus{
	ShipmentItemStatusPlanned,
	ShipmentItemStatusInTransit,
	ShipmentItemStatusInStorage,
}

// String implements fmt.Stringer.
func (v ShipmentItemStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ShipmentItemStatus.
func (v ShipmentItemStatus) IsValid() bool {
	for _, candidate := range validShipmentItemStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseShipmentItemStatus converts raw input into a ShipmentItemStatus.
func ParseShipmentItemStatus(value string) (ShipmentItemStatus, error) {
	for _, candidate := range validShipmentItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment item status %q", value)
}
