package transform

import (
	"context"
	"errors"
	"fmt"

	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
)

// ErrSkip signals that a step has dropped the current element. It is a
// control value, never reported as a failure.
var ErrSkip = sferrors.ErrSkip

// Step represents a single element transformation in a chain.
type Step[T any] interface {
	// Apply transforms one element. Returning ErrSkip drops the element;
	// any other error aborts the chain for this element.
	Apply(ctx context.Context, value T) (T, error)

	// Name returns an identifier for this step, used in error reporting.
	Name() string
}

// StepFunc is a function type that implements the Step interface.
type StepFunc[T any] struct {
	name string
	fn   func(ctx context.Context, value T) (T, error)
}

// Apply implements the Step interface for StepFunc.
func (sf *StepFunc[T]) Apply(ctx context.Context, value T) (T, error) {
	return sf.fn(ctx, value)
}

// Name returns the step name.
func (sf *StepFunc[T]) Name() string {
	return sf.name
}

// NewStepFunc creates a step from a function.
func NewStepFunc[T any](name string, fn func(ctx context.Context, value T) (T, error)) Step[T] {
	return &StepFunc[T]{name: name, fn: fn}
}

// Map creates a step that transforms each element with fn.
func Map[T any](name string, fn func(T) (T, error)) Step[T] {
	return NewStepFunc(name, func(_ context.Context, value T) (T, error) {
		return fn(value)
	})
}

// Filter creates a step that keeps only elements for which predicate returns
// true. Filtered-out elements skip the remainder of the chain.
func Filter[T any](name string, predicate func(T) bool) Step[T] {
	return NewStepFunc(name, func(_ context.Context, value T) (T, error) {
		if !predicate(value) {
			return value, ErrSkip
		}
		return value, nil
	})
}

// Tap creates a step that performs a bounded side effect (counter increment,
// log emission) and passes the element through unchanged. The action must not
// block indefinitely.
func Tap[T any](name string, action func(T)) Step[T] {
	return NewStepFunc(name, func(_ context.Context, value T) (T, error) {
		action(value)
		return value, nil
	})
}

// StepError reports which step of a chain failed on an element.
type StepError struct {
	Step string
	Err  error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

// Unwrap returns the underlying step failure.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Chain is an ordered composition of steps applied strictly left-to-right:
// the first step's output feeds the second step's input. Steps may carry
// state through closures but must not depend on element ordering beyond what
// the caller guarantees.
type Chain[T any] struct {
	steps []Step[T]
}

// NewChain creates a chain from the given steps, applied in argument order.
func NewChain[T any](steps ...Step[T]) *Chain[T] {
	c := &Chain[T]{steps: make([]Step[T], 0, len(steps))}
	c.steps = append(c.steps, steps...)
	return c
}

// Append adds steps to the end of the chain and returns the chain.
func (c *Chain[T]) Append(steps ...Step[T]) *Chain[T] {
	c.steps = append(c.steps, steps...)
	return c
}

// Len returns the number of steps in the chain.
func (c *Chain[T]) Len() int {
	return len(c.steps)
}

// Steps returns a copy of the chain's steps.
func (c *Chain[T]) Steps() []Step[T] {
	out := make([]Step[T], len(c.steps))
	copy(out, c.steps)
	return out
}

// Apply runs the chain on one element. It returns the transformed value and
// kept=true when the element passed every step; kept=false when a step
// skipped it; and a non-nil StepError when a step failed.
func (c *Chain[T]) Apply(ctx context.Context, value T) (result T, kept bool, err error) {
	result = value
	for _, step := range c.steps {
		next, err := step.Apply(ctx, result)
		if err != nil {
			if errors.Is(err, ErrSkip) {
				return result, false, nil
			}
			return result, false, &StepError{Step: step.Name(), Err: err}
		}
		result = next
	}
	return result, true, nil
}
