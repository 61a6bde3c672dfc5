package reading

import "errors"

var (
	ErrNotFound           = errors.New("reading not found")
	ErrValidation         = errors.New("invalid reading")
	ErrDuplicateTimestamp = errors.New("a reading already exists for this date and time")
	ErrInvalidRange       = errors.New("invalid date range")
	ErrNothingToPrint     = errors.New("no records to print")

	// errDuplicateClientRef is returned by repositories when a concurrent
	// create already claimed the client reference.
	errDuplicateClientRef = errors.New("client reference already used")
)
