package datetime

import "fmt"

// ValidationError reports display text that could not be mapped to a
// calendar date or clock time. Writes must be blocked when it is returned.
type ValidationError struct {
	Field string
	Input string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("could not determine %s from %q", e.Field, e.Input)
}
