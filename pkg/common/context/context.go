// Package context provides small helpers for classifying context termination.
// Stop signals delivered through contexts are expected terminations, not
// failures, and several components need to make that distinction.
package context

import (
	"context"
	"errors"
)

// IsCanceled returns true if the context has been canceled.
func IsCanceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// IsTimedOut returns true if the context was canceled due to a deadline.
func IsTimedOut(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// IsStop returns true if err is a context cancellation or deadline error,
// possibly wrapped. Components treat these as stop signals rather than
// failures.
func IsStop(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
