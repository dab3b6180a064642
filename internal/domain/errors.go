package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is returned for a disallowed edition state change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrStoreUnavailable means no store connection is configured.
	ErrStoreUnavailable = errors.New("store not configured")
	// ErrNotConfigured means an optional external service has no credentials.
	ErrNotConfigured = errors.New("service not configured")
	// ErrDelivery wraps failures reported by the email service.
	ErrDelivery = errors.New("delivery failed")
	// ErrConflict is returned when an edition changed after it was read.
	ErrConflict = errors.New("edition changed concurrently")
)

// ValidationError names the input field that was missing or invalid.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
