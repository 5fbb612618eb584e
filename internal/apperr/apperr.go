// Package apperr holds the error categories shared by the identity and booking
// packages. Specific errors wrap one of these so callers can branch on either.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing input, caught before any mutation.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a uniqueness or scheduling overlap violation.
	ErrConflict = errors.New("conflict")
	// ErrState marks an operation that the record's current state does not allow.
	ErrState = errors.New("invalid state")
	// ErrNotFound marks an id that does not resolve to a stored record.
	ErrNotFound = errors.New("not found")
	// ErrInfrastructure marks a storage read or write failure. Callers should
	// report "operation failed, retry"; nothing is retried automatically.
	ErrInfrastructure = errors.New("operation failed, retry")
)

// Infrastructure wraps a storage error so that it matches both ErrInfrastructure
// and the underlying cause.
func Infrastructure(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrInfrastructure, op, err)
}

// Validation builds an ad-hoc validation error with a field-level message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsDomain reports whether err is an expected domain outcome rather than an
// infrastructure failure.
func IsDomain(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrState) ||
		errors.Is(err, ErrNotFound)
}

// Classify returns err unchanged when it already carries a category and
// otherwise files it as an infrastructure failure of op. Lock acquisition
// errors and context cancellation end up in the latter group.
func Classify(op string, err error) error {
	if err == nil || IsDomain(err) || errors.Is(err, ErrInfrastructure) {
		return err
	}
	return Infrastructure(op, err)
}
