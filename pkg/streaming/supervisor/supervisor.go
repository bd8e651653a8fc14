package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	flowctx "github.com/vnykmshr/seqflow/pkg/common/context"
	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/common/validation"
	"github.com/vnykmshr/seqflow/pkg/streaming/channel"
	"github.com/vnykmshr/seqflow/pkg/streaming/producer"
)

// RestartEvent records one producer restart.
type RestartEvent struct {
	// Time is when the restart was decided.
	Time time.Time

	// Cursor is the position the new producer starts at.
	Cursor uint64

	// Cause is the failure that terminated the previous producer.
	Cause error

	// Restarts is the total restart count including this one.
	Restarts int
}

// Config holds configuration for a Supervisor.
type Config[T any] struct {
	// Source supplies items to each owned producer.
	Source producer.Source[T]

	// Output is the channel every owned producer writes to. Its identity is
	// stable across restarts, so downstream consumers never observe a
	// discontinuity in the channel itself.
	Output channel.Channel[T]

	// InitialCursor is where the first producer starts.
	InitialCursor uint64

	// Policy decides restart behavior. Defaults to Immediate.
	Policy RestartPolicy

	// StopOnFatal ends supervision instead of restarting when the cause is
	// marked fatal (errors.IsFatal).
	StopOnFatal bool

	// CloseOnDone closes the output channel when supervision ends, whether by
	// source exhaustion, policy refusal, or stop signal.
	CloseOnDone bool

	// EventLogSize bounds the restart event log. Defaults to 64.
	EventLogSize int

	// Logger receives supervision events. Nil disables logging.
	Logger *zerolog.Logger

	// OnRestart is called after each restart decision.
	OnRestart func(event RestartEvent)
}

// Supervisor owns a producer's lifecycle: it starts one, observes its
// terminal outcome, and restarts it from the last known-good cursor according
// to the restart policy. Producer failures never propagate out of the
// supervisor; only its own defects do.
type Supervisor[T any] struct {
	config Config[T]
	logger zerolog.Logger

	mu       sync.Mutex
	events   []RestartEvent
	restarts int
}

// New creates a Supervisor from the given configuration.
func New[T any](config Config[T]) (*Supervisor[T], error) {
	if config.Source == nil {
		return nil, validation.ValidateNotNil("supervisor", "Source", nil)
	}
	if config.Output == nil {
		return nil, validation.ValidateNotNil("supervisor", "Output", nil)
	}
	if config.Policy == nil {
		config.Policy = Immediate()
	}
	if config.EventLogSize <= 0 {
		config.EventLogSize = 64
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &Supervisor[T]{
		config: config,
		logger: logger.With().Str("component", "supervisor").Logger(),
	}, nil
}

// Run supervises producers until source exhaustion, policy refusal, a fatal
// cause with StopOnFatal set, or context cancellation. Cancellation is a stop
// signal, not a failure: Run closes the output channel so every blocked
// downstream task wakes, and returns nil.
func (s *Supervisor[T]) Run(ctx context.Context) error {
	cursor := s.config.InitialCursor

	for {
		p, err := producer.New(producer.Config[T]{
			Source:      s.config.Source,
			Output:      s.config.Output,
			StartCursor: cursor,
			Logger:      s.config.Logger,
		})
		if err != nil {
			// A supervisor that cannot start a producer is defective; that is
			// fatal to the caller, not recoverable.
			return fmt.Errorf("start producer at cursor %d: %w", cursor, err)
		}

		outcome := p.Run(ctx)

		if !outcome.Failed() {
			s.logger.Info().Uint64("cursor", outcome.Cursor).Msg("source exhausted, supervision complete")
			s.finish()
			return nil
		}

		if outcome.Stopped() || flowctx.IsCanceled(ctx) {
			s.logger.Info().Uint64("cursor", outcome.Cursor).Msg("stop signal received")
			s.stop()
			return nil
		}

		if s.config.StopOnFatal && sferrors.IsFatal(outcome.Err) {
			s.logger.Error().Uint64("cursor", outcome.Cursor).Err(outcome.Err).
				Msg("fatal source error, supervision ends")
			s.finish()
			return fmt.Errorf("producer failed at cursor %d: %w", outcome.Cursor, outcome.Err)
		}

		delay, ok := s.config.Policy.Next(s.restartCount(), outcome.Err)
		if !ok {
			s.logger.Error().Uint64("cursor", outcome.Cursor).Err(outcome.Err).
				Msg("restart policy exhausted")
			s.finish()
			return fmt.Errorf("producer failed at cursor %d: %w", outcome.Cursor, outcome.Err)
		}

		cursor = outcome.Cursor
		event := s.recordRestart(cursor, outcome.Err)
		s.logger.Warn().
			Uint64("cursor", cursor).
			Int("restarts", event.Restarts).
			Dur("delay", delay).
			Err(outcome.Err).
			Msg("restarting producer")

		if s.config.OnRestart != nil {
			s.config.OnRestart(event)
		}

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				s.stop()
				return nil
			case <-timer.C:
			}
		}
	}
}

// Events returns a copy of the restart event log.
func (s *Supervisor[T]) Events() []RestartEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RestartEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Restarts returns the total number of restarts performed.
func (s *Supervisor[T]) Restarts() int {
	return s.restartCount()
}

func (s *Supervisor[T]) restartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts
}

func (s *Supervisor[T]) recordRestart(cursor uint64, cause error) RestartEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.restarts++
	event := RestartEvent{
		Time:     time.Now(),
		Cursor:   cursor,
		Cause:    cause,
		Restarts: s.restarts,
	}
	s.events = append(s.events, event)
	if len(s.events) > s.config.EventLogSize {
		s.events = s.events[len(s.events)-s.config.EventLogSize:]
	}
	return event
}

// finish ends supervision after a terminal outcome.
func (s *Supervisor[T]) finish() {
	if s.config.CloseOnDone {
		_ = s.config.Output.Close()
	}
}

// stop ends supervision on an external stop signal. The channel is always
// closed so blocked downstream readers observe termination.
func (s *Supervisor[T]) stop() {
	_ = s.config.Output.Close()
}
