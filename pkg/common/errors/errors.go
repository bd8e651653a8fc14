package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the seqflow library

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrFull is returned when a bounded buffer is at capacity and the
	// configured policy does not permit blocking or dropping
	ErrFull = errors.New("buffer is full")

	// ErrTooManyPendingWrites indicates that the asynchronous write queue limit
	// was exceeded; this is a configuration violation, always fatal to the writer
	ErrTooManyPendingWrites = errors.New("too many pending writes")

	// ErrEndOfSource indicates that a source has no more items
	ErrEndOfSource = errors.New("end of source")

	// ErrSkip is a control value used by transform steps to drop an element.
	// It is never reported as a failure.
	ErrSkip = errors.New("element skipped")

	// ErrAlreadyRan indicates that a single-use component was run twice
	ErrAlreadyRan = errors.New("already ran")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// transientError marks a failure as recoverable by restarting the failed task.
type transientError struct{ err error }

func (e *transientError) Error() string { return "transient: " + e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// fatalError marks a failure as unrecoverable; supervisors should not retry it.
type fatalError struct{ err error }

func (e *fatalError) Error() string { return "fatal: " + e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Transient wraps err so that IsTransient reports true.
// Wrapping nil returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// Fatal wraps err so that IsFatal reports true.
// Wrapping nil returns nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsTransient returns true if the error was marked with Transient
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// IsFatal returns true if the error was marked with Fatal
func IsFatal(err error) bool {
	var f *fatalError
	return errors.As(err, &f)
}

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation
func IsRetryable(err error) bool {
	return IsTransient(err) && !IsFatal(err)
}

// ValidationError describes a configuration value that failed validation.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError for the given module and field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint to the error.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s (%v): %s", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " (hint: " + e.Hint + ")"
	}
	return msg
}

// Unwrap makes errors.Is(err, ErrInvalidConfiguration) hold for validation errors.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// IsValidationError returns true if err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
