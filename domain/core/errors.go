package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data entry errors, raised while building measurements and groups
	ErrDataEntry           = errors.New("invalid measurement data")
	ErrNegativeUncertainty = fmt.Errorf("%w: negative uncertainty", ErrDataEntry)
	ErrTooManySlots        = fmt.Errorf("%w: more than four uncertainty slots", ErrDataEntry)
	ErrZeroSigma           = fmt.Errorf("%w: total uncertainty is zero", ErrDataEntry)
	ErrInvalidCorrelation  = fmt.Errorf("%w: invalid correlation matrix", ErrDataEntry)
	ErrSingularCovariance  = fmt.Errorf("%w: covariance is not positive definite", ErrDataEntry)
	ErrDuplicateName       = fmt.Errorf("%w: duplicate measurement name", ErrDataEntry)
	ErrEmptyGroup          = fmt.Errorf("%w: group has no measurements", ErrDataEntry)

	// Shape errors
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// Lookup errors
	ErrMissingMeasurement = errors.New("missing measurement")
	ErrUnknownParameter   = errors.New("unknown parameter")
	ErrUnknownMode        = errors.New("unknown combination mode")
)

// Error constructors with context
func NewDataEntryError(name string, err error) error {
	return fmt.Errorf("measurement %q: %w", name, err)
}

func NewDimensionError(name string, want, got int) error {
	return fmt.Errorf("%w for %q: want %d, got %d", ErrDimensionMismatch, name, want, got)
}

func NewMissingMeasurementError(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingMeasurement, name)
}

// Error checking helpers
func IsDataEntryError(err error) bool {
	return errors.Is(err, ErrDataEntry)
}

func IsDimensionError(err error) bool {
	return errors.Is(err, ErrDimensionMismatch)
}

func IsMissingMeasurement(err error) bool {
	return errors.Is(err, ErrMissingMeasurement)
}
