package schema

import (
	"errors"
	"fmt"
)

// Error taxonomy of the engine. Callers match these with errors.Is.
var (
	// ErrInvalidMetric marks a file with a negative raw value. It is a soft failure.
	ErrInvalidMetric = errors.New("invalid metric")

	// ErrInvalidThreshold marks bad scoring configuration. It aborts the build.
	ErrInvalidThreshold = errors.New("invalid threshold")

	// ErrEmptyValidInput means every file of a build was invalid.
	ErrEmptyValidInput = errors.New("no valid file metrics")

	// ErrDuplicateSnapshot means (repo, sprint) is already stored.
	ErrDuplicateSnapshot = errors.New("duplicate snapshot")

	// ErrLeaseConflict means another build holds the repository lease.
	ErrLeaseConflict = errors.New("lease conflict")
)

// InvalidMetricError describes why a single file metric was rejected.
type InvalidMetricError struct {
	Path  string
	Field string
	Value float64
}

// Error implements the error interface.
func (e *InvalidMetricError) Error() string {
	return fmt.Sprintf("%s: %s must be >= 0 (got %v)", e.Path, e.Field, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidMetric.
func (e *InvalidMetricError) Unwrap() error {
	return ErrInvalidMetric
}
