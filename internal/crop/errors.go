package crop

import (
	"errors"
	"fmt"
)

// Sentinel errors for crop profile and catalog validation.
var (
	// ErrMissingName indicates a crop profile has an empty name.
	ErrMissingName = errors.New("crop name is required")
	// ErrDuplicateName indicates two or more crops in a catalog share a name.
	ErrDuplicateName = errors.New("duplicate crop name")
	// ErrNonPositive indicates a field that must be strictly positive is not.
	ErrNonPositive = errors.New("value must be positive")
	// ErrNegative indicates a field that must be non-negative is negative.
	ErrNegative = errors.New("value must not be negative")
	// ErrInvalidHorizon indicates the annual horizon is not a positive number of days.
	ErrInvalidHorizon = errors.New("horizon must be a positive number of days")
	// ErrUnknownPreset indicates a built-in catalog name that does not exist.
	ErrUnknownPreset = errors.New("unknown catalog preset")
)

// ValidationError records a validation problem with the offending crop and field.
type ValidationError struct {
	Crop  string // Crop name, or "#<index>" when the name itself is missing
	Field string // TOML key of the offending field
	Err   error
}

// Error returns a human-readable string naming the crop and field.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("crop %s: %v", e.Crop, e.Err)
	}
	return fmt.Sprintf("crop %s: %s: %v", e.Crop, e.Field, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
