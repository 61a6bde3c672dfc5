package reading

import "fmt"

const (
	MinSystolic  = 50
	MaxSystolic  = 300
	MinDiastolic = 30
	MaxDiastolic = 200
	MinPulse     = 30
	MaxPulse     = 200
)

// ValidateMeasurements checks the ranges of a measurement triple and that
// systolic exceeds diastolic. Errors wrap ErrValidation.
func ValidateMeasurements(systolic, diastolic, pulse int) error {
	if systolic < MinSystolic || systolic > MaxSystolic {
		return fmt.Errorf("%w: Upper pressure must be between %d-%d mmHg", ErrValidation, MinSystolic, MaxSystolic)
	}
	if diastolic < MinDiastolic || diastolic > MaxDiastolic {
		return fmt.Errorf("%w: Lower pressure must be between %d-%d mmHg", ErrValidation, MinDiastolic, MaxDiastolic)
	}
	if pulse < MinPulse || pulse > MaxPulse {
		return fmt.Errorf("%w: Pulse rate must be between %d-%d bpm", ErrValidation, MinPulse, MaxPulse)
	}
	if systolic <= diastolic {
		return fmt.Errorf("%w: Upper pressure must be higher than lower pressure", ErrValidation)
	}
	return nil
}
