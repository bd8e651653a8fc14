package transform

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttle returns a step that paces elements at the given rate. Unlike other
// steps it deliberately blocks, which makes it the documented exception to the
// bounded-side-effect contract: place it in chains feeding rate-sensitive
// consumers, and expect it to dominate pipeline throughput.
func Throttle[T any](name string, perSecond float64, burst int) Step[T] {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return NewStepFunc(name, func(ctx context.Context, value T) (T, error) {
		if err := limiter.Wait(ctx); err != nil {
			var zero T
			return zero, err
		}
		return value, nil
	})
}
