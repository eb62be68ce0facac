package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateShipment        OutboxAggregateType = "shipment"
	AggregateStorageRequest  OutboxAggregateType = "storage_request"
	AggregateDockAppointment OutboxAggregateType = "dock_appointment"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateShipment,
	AggregateStorageRequest,
	AggregateDockAppointment,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventStorageRequestApproved OutboxEventType = "storage_request_approved"
	EventStorageRequestRejected OutboxEventType = "storage_request_rejected"
	EventTruckReceived          OutboxEventType = "truck_received"
	EventShipmentReceived       OutboxEventType = "shipment_received"
	EventAppointmentSynced      OutboxEventType = "dock_appointment_synced"
)

var validOutboxEventTypes = []OutboxEventType{
	EventStorageRequestApproved,
	EventStorageRequestRejected,
	EventTruckReceived,
	EventShipmentReceived,
	EventAppointmentSynced,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason records why an event left the publish loop.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts means transient publish failures exhausted
	// the retry budget.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable covers unknown event types, undecodable
	// payloads and missing topics.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	return r == OutboxDLQReasonMaxAttempts || r == OutboxDLQReasonNonRetryable
}
