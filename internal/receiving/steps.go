package receiving

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/yardops-backend/pkg/errors"
)

// Step names a unit of settlement; failures report which one broke.
type Step string

const (
	StepTruckReceived         Step = "truck_received"
	StepAppointmentCompletion Step = "appointment_completion"
	StepManifestSettlement    Step = "manifest_settlement"
	StepShipmentCompletion    Step = "shipment_completion"
)

func (s Step) String() string { return string(s) }

// stepFailure wraps a persistence error with the failing step. Typed errors
// (state conflicts) keep their code and gain the step detail.
func stepFailure(step Step, err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		details := map[string]any{"step": step.String()}
		if existing, ok := typed.Details().(map[string]any); ok {
			for k, v := range existing {
				details[k] = v
			}
		}
		return pkgerrors.Wrap(typed.Code(), err, typed.Message()).WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("settlement step %s failed", step)).
		WithDetails(map[string]any{"step": step.String()})
}
