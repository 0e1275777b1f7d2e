package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrDistrictNotFound = fmt.Errorf("%w: district", ErrNotFound)
	ErrTableNotFound    = fmt.Errorf("%w: table", ErrNotFound)

	// Input errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrDegenerateInput = errors.New("degenerate input")

	// Backing data errors
	ErrDataUnavailable = errors.New("data unavailable")
	ErrIO              = errors.New("store I/O failure")
	ErrReadOnlyTable   = fmt.Errorf("%w: table is read-only", ErrIO)
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewInvalidInputError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInput, field, reason)
}

func NewDataUnavailableError(table string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrDataUnavailable, table)
	}
	return fmt.Errorf("%w: %s: %v", ErrDataUnavailable, table, err)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
