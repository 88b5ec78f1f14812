// Package errors holds the sentinel errors shared by every secretstore module.
// Domain packages derive their own errors from these with Wrap so callers can
// branch on intent (not found, conflict, invalid input, unavailable) without
// knowing which storage or provider produced the failure.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested record does not exist in the caller's scope.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the operation collides with existing state.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable indicates an external dependency (a KMS endpoint) kept failing.
	ErrUnavailable = errors.New("unavailable")

	// ErrForbidden indicates the actor may not touch the record.
	ErrForbidden = errors.New("forbidden")
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap adds context to err while preserving the chain. Returns nil for a nil err.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join wraps errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
