package producer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	flowctx "github.com/vnykmshr/seqflow/pkg/common/context"
	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/common/validation"
	"github.com/vnykmshr/seqflow/pkg/streaming/channel"
)

// Source is the capability a producer pulls from: fetch one item at a cursor.
// Implementations signal exhaustion with errors.ErrEndOfSource, and may
// classify failures with errors.Transient or errors.Fatal to steer the
// supervisor's restart decision.
type Source[T any] interface {
	Fetch(ctx context.Context, cursor uint64) (T, error)
}

// SourceFunc is a function type that implements the Source interface.
type SourceFunc[T any] func(ctx context.Context, cursor uint64) (T, error)

// Fetch implements the Source interface for SourceFunc.
func (f SourceFunc[T]) Fetch(ctx context.Context, cursor uint64) (T, error) {
	return f(ctx, cursor)
}

// Outcome is the terminal result of one producer run. A nil Err means the
// source was exhausted and the run closed normally. A non-nil Err reports the
// failure together with the cursor that was NOT yet consumed: restarting at
// Outcome.Cursor never skips an item, though it may re-deliver one.
type Outcome struct {
	Cursor uint64
	Err    error
}

// Failed returns true if the run terminated with an error.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Stopped returns true if the run terminated because its context was
// canceled, which is a stop signal rather than a failure.
func (o Outcome) Stopped() bool {
	return flowctx.IsStop(o.Err)
}

// Config holds configuration for a Producer.
type Config[T any] struct {
	// Source supplies items by cursor.
	Source Source[T]

	// Output is the channel items are written to. The producer does not own
	// the channel; closing it is the supervisor's (or caller's) job.
	Output channel.Channel[T]

	// StartCursor is the position of the first item to fetch.
	StartCursor uint64

	// Logger receives per-run events. Nil disables logging.
	Logger *zerolog.Logger

	// OnItem is called after each item is written, with the cursor it was
	// fetched at.
	OnItem func(cursor uint64, value T)
}

// Producer repeatedly fetches one item from its source, writes it to the
// output channel, and advances its cursor. Every failure is captured as a
// typed Outcome instead of crashing silently.
type Producer[T any] struct {
	config Config[T]
	logger zerolog.Logger
	cursor atomic.Uint64
	ran    atomic.Bool
}

// New creates a Producer from the given configuration.
func New[T any](config Config[T]) (*Producer[T], error) {
	if config.Source == nil {
		return nil, validation.ValidateNotNil("producer", "Source", nil)
	}
	if config.Output == nil {
		return nil, validation.ValidateNotNil("producer", "Output", nil)
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	p := &Producer[T]{
		config: config,
		logger: logger.With().Str("component", "producer").Logger(),
	}
	p.cursor.Store(config.StartCursor)
	return p, nil
}

// Cursor returns the position of the next item to fetch. The cursor advances
// only after a successful fetch-and-write, so the reported position is never
// a consumed one.
func (p *Producer[T]) Cursor() uint64 {
	return p.cursor.Load()
}

// Run drives the fetch-write loop until source exhaustion, an error, or
// context cancellation, and reports the terminal Outcome. A producer is
// single-use; create a new one to restart.
func (p *Producer[T]) Run(ctx context.Context) Outcome {
	if !p.ran.CompareAndSwap(false, true) {
		return Outcome{Cursor: p.cursor.Load(), Err: sferrors.ErrAlreadyRan}
	}

	for {
		cursor := p.cursor.Load()

		select {
		case <-ctx.Done():
			return Outcome{Cursor: cursor, Err: ctx.Err()}
		default:
		}

		value, err := p.config.Source.Fetch(ctx, cursor)
		if err != nil {
			if errors.Is(err, sferrors.ErrEndOfSource) {
				p.logger.Debug().Uint64("cursor", cursor).Msg("source exhausted")
				return Outcome{Cursor: cursor}
			}
			p.logger.Warn().Uint64("cursor", cursor).Err(err).Msg("fetch failed")
			return Outcome{Cursor: cursor, Err: fmt.Errorf("fetch item at cursor %d: %w", cursor, err)}
		}

		if err := p.config.Output.Send(ctx, value); err != nil {
			// The item was fetched but not written, so the cursor stays put.
			p.logger.Warn().Uint64("cursor", cursor).Err(err).Msg("write failed")
			return Outcome{Cursor: cursor, Err: fmt.Errorf("write item at cursor %d: %w", cursor, err)}
		}

		if p.config.OnItem != nil {
			p.config.OnItem(cursor, value)
		}
		p.cursor.Store(cursor + 1)
	}
}
