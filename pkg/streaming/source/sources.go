package source

import (
	"context"

	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/streaming/producer"
)

// sliceSource serves the elements of a slice by cursor.
type sliceSource[T any] struct {
	items []T
}

// Slice creates a Source over a fixed slice. Cursors beyond the end report
// ErrEndOfSource.
func Slice[T any](items []T) producer.Source[T] {
	return &sliceSource[T]{items: items}
}

// Fetch implements producer.Source.
func (s *sliceSource[T]) Fetch(_ context.Context, cursor uint64) (T, error) {
	if cursor >= uint64(len(s.items)) {
		var zero T
		return zero, sferrors.ErrEndOfSource
	}
	return s.items[cursor], nil
}

// Func adapts a fetch function into a Source.
func Func[T any](fn func(ctx context.Context, cursor uint64) (T, error)) producer.Source[T] {
	return producer.SourceFunc[T](fn)
}

// generatorSource produces values from a generator function, ignoring the
// cursor. Useful for endless test and benchmark feeds.
type generatorSource[T any] struct {
	generate func() T
}

// Generate creates an endless Source from a generator function.
func Generate[T any](generate func() T) producer.Source[T] {
	return &generatorSource[T]{generate: generate}
}

// Fetch implements producer.Source.
func (s *generatorSource[T]) Fetch(_ context.Context, _ uint64) (T, error) {
	return s.generate(), nil
}
