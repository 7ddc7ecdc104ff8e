package errors

import (
	"errors"
	"fmt"
)

// Custom application errors
var (
	ErrValidation         = errors.New("invalid medication input")
	ErrPermissionDenied   = errors.New("notification permission not granted")
	ErrGateway            = errors.New("notification gateway call failed")
	ErrPersistence        = errors.New("schedule store write failed")
	ErrMedicationNotFound = errors.New("medication not found")
	ErrDeviceNotFound     = errors.New("device not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrInternalServer     = errors.New("internal server error")
)

// ValidationError names the first constraint an input violated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
