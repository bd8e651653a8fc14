package testutil

import (
	"context"
	"sync"

	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
)

// FlakySource is a cursor-addressed source of ints that can be configured to
// fail at specific cursors. It structurally implements producer.Source[int].
type FlakySource struct {
	mu sync.Mutex

	// Items are the values served by cursor.
	Items []int

	// FailAt maps a cursor to the error returned when it is first fetched.
	FailAt map[uint64]error

	// FailForever keeps failing the configured cursors on every fetch rather
	// than only the first.
	FailForever bool

	// fetches counts Fetch calls per cursor.
	fetches map[uint64]int
}

// NewFlakySource creates a source serving items 0..n-1 with value == cursor.
func NewFlakySource(n int) *FlakySource {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return &FlakySource{
		Items:   items,
		FailAt:  make(map[uint64]error),
		fetches: make(map[uint64]int),
	}
}

// FailOnce configures the source to fail the first fetch of cursor with err.
func (s *FlakySource) FailOnce(cursor uint64, err error) *FlakySource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailAt[cursor] = err
	return s
}

// Fetch returns the item at cursor, a configured failure, or ErrEndOfSource.
func (s *FlakySource) Fetch(_ context.Context, cursor uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetches[cursor]++
	if err, ok := s.FailAt[cursor]; ok {
		if s.FailForever || s.fetches[cursor] == 1 {
			return 0, err
		}
	}
	if cursor >= uint64(len(s.Items)) {
		return 0, sferrors.ErrEndOfSource
	}
	return s.Items[cursor], nil
}

// Fetches returns how many times the given cursor has been fetched.
func (s *FlakySource) Fetches(cursor uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[cursor]
}

// ErrorRecorder collects (element, error) pairs routed to a pipeline error
// handler, so tests can assert on recovered failures.
type ErrorRecorder struct {
	mu     sync.Mutex
	elems  []int
	errors []error
}

// Record stores one recovered failure.
func (r *ErrorRecorder) Record(elem int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.elems = append(r.elems, elem)
	r.errors = append(r.errors, err)
}

// Count returns the number of recorded failures.
func (r *ErrorRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.elems)
}

// Elems returns a copy of the recorded elements.
func (r *ErrorRecorder) Elems() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.elems))
	copy(out, r.elems)
	return out
}

// Errors returns a copy of the recorded errors.
func (r *ErrorRecorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.errors))
	copy(out, r.errors)
	return out
}
