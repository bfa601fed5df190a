package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors: fail loudly before any computation runs
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrUnknownDistribution = fmt.Errorf("%w: unknown complexity distribution", ErrInvalidConfig)
	ErrUnknownJudge        = fmt.Errorf("%w: unknown judge variant", ErrInvalidConfig)
	ErrUnknownStrategy     = fmt.Errorf("%w: unknown selection strategy", ErrInvalidConfig)
	ErrUnknownBaseline     = fmt.Errorf("%w: unknown baseline model", ErrInvalidConfig)
	ErrUnknownSequenceMode = fmt.Errorf("%w: unknown sequence mode", ErrInvalidConfig)
	ErrUnknownFitModel     = fmt.Errorf("%w: unknown fit model", ErrInvalidConfig)
	ErrUnknownFormat       = fmt.Errorf("%w: unknown report format", ErrInvalidConfig)
	ErrUnknownMetric       = fmt.Errorf("%w: unknown ranking metric", ErrInvalidConfig)
	ErrInvalidThreshold    = fmt.Errorf("%w: mistake threshold", ErrInvalidConfig)
	ErrInvalidRange        = fmt.Errorf("%w: range", ErrInvalidConfig)

	// Storage errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)
)

// Error constructors with context
func NewConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, reason)
}

func NewRangeError(field string, lo, hi float64) error {
	return fmt.Errorf("%w: %s [%g, %g] is not a valid interval", ErrInvalidRange, field, lo, hi)
}

// Error checking helpers
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
