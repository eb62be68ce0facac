package enums

import "fmt"

// AllocationMode selects how a rack measures its capacity.
type AllocationMode string

const (
	AllocationModeSlot   AllocationMode = "SLOT"
	AllocationModeLinear AllocationMode = "LINEAR"
)

var validAllocationModes = []AllocationMode{
	AllocationModeSlot,
	AllocationModeLinear,
}

// String implements fmt.Stringer.
func (v AllocationMode) String() string {
	return string(v)
}

// IsValid reports whether the value is a known AllocationMode.
func (v AllocationMode) IsValid() bool {
	for _, candidate := range validAllocationModes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseAllocationMode converts raw input into a AllocationMode.
func ParseAllocationMode(value string) (AllocationMode, error) {
	for _, candidate := range validAllocationModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid allocation mode %q", value)
}
