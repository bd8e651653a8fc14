package sink

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/common/validation"
	"github.com/vnykmshr/seqflow/pkg/streaming/channel"
)

// Encoder turns one element into the bytes appended to the output. The
// returned slice must include any record separator.
type Encoder[T any] func(value T) ([]byte, error)

// Stats holds sink counters.
type Stats struct {
	// Elements is the number of elements drained from the channel.
	Elements int64

	// BytesWritten is the total bytes flushed to the underlying writer.
	BytesWritten int64

	// FlushCount is the number of flushes performed.
	FlushCount int64

	// ErrorCount counts encode and write failures.
	ErrorCount int64
}

// Config holds configuration for a Sink.
type Config[T any] struct {
	// Input is the channel the sink drains. The sink treats channel closure
	// as normal termination.
	Input channel.Channel[T]

	// Writer receives the encoded bytes.
	Writer io.Writer

	// Encode turns elements into bytes. Required.
	Encode Encoder[T]

	// BufferSize is the byte threshold that triggers a flush. Defaults to 64KB.
	BufferSize int

	// FlushInterval flushes partial buffers on a timer so records do not sit
	// in memory during quiet periods. Zero disables the timer. Defaults to
	// one second.
	FlushInterval time.Duration

	// Logger receives sink events. Nil disables logging.
	Logger *zerolog.Logger

	// OnFlush is called after each flush with its size and duration.
	OnFlush func(bytes int, d time.Duration)

	// OnError is called on encode or write failures.
	OnError func(error)
}

// Sink drains a channel into an io.Writer: elements are encoded, buffered,
// and flushed in batches, so a slow writer does not add per-element latency
// upstream. A sink is single-use, like the other stream runners.
type Sink[T any] struct {
	config Config[T]
	logger zerolog.Logger
	ran    atomic.Bool

	mu  sync.Mutex
	buf []byte

	statsMu sync.Mutex
	stats   Stats
}

// New creates a Sink from the given configuration.
func New[T any](config Config[T]) (*Sink[T], error) {
	if config.Input == nil {
		return nil, validation.ValidateNotNil("sink", "Input", nil)
	}
	if config.Writer == nil {
		return nil, validation.ValidateNotNil("sink", "Writer", nil)
	}
	if config.Encode == nil {
		return nil, validation.ValidateNotNil("sink", "Encode", nil)
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 64 * 1024
	}
	if config.FlushInterval == 0 {
		config.FlushInterval = time.Second
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &Sink[T]{
		config: config,
		logger: logger.With().Str("component", "sink").Logger(),
		buf:    make([]byte, 0, config.BufferSize),
	}, nil
}

// Run drains the input channel until it closes or the context is canceled,
// then flushes whatever is buffered and returns. Closure and cancellation are
// both normal termination; only a second Run call is an error.
func (s *Sink[T]) Run(ctx context.Context) error {
	if !s.ran.CompareAndSwap(false, true) {
		return sferrors.ErrAlreadyRan
	}

	stopTimer := s.startFlushTimer()
	defer stopTimer()

	for {
		value, err := s.config.Input.Receive(ctx)
		if err != nil {
			s.flush()
			s.logger.Info().Int64("elements", s.Stats().Elements).Msg("sink drained")
			return nil
		}

		s.updateStats(func(st *Stats) { st.Elements++ })

		encoded, err := s.config.Encode(value)
		if err != nil {
			s.fail(err)
			continue
		}

		s.mu.Lock()
		s.buf = append(s.buf, encoded...)
		full := len(s.buf) >= s.config.BufferSize
		s.mu.Unlock()

		if full {
			s.flush()
		}
	}
}

// Stats returns a snapshot of the sink counters.
func (s *Sink[T]) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// Buffered returns the number of bytes waiting for the next flush.
func (s *Sink[T]) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

func (s *Sink[T]) startFlushTimer() func() {
	if s.config.FlushInterval <= 0 {
		return func() {}
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.config.FlushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.flush()
			case <-stop:
				return
			}
		}
	}()

	return func() {
		close(stop)
		wg.Wait()
	}
}

// flush writes the buffered bytes out. Safe to call from the drain loop and
// the timer concurrently.
func (s *Sink[T]) flush() {
	s.mu.Lock()
	if len(s.buf) == 0 {
		s.mu.Unlock()
		return
	}

	started := time.Now()
	n, err := s.config.Writer.Write(s.buf)
	if err != nil {
		// Partial writes keep the unwritten tail for the next flush.
		s.buf = s.buf[:copy(s.buf, s.buf[n:])]
		s.mu.Unlock()
		s.fail(err)
		return
	}

	size := len(s.buf)
	s.buf = s.buf[:0]
	s.mu.Unlock()

	s.updateStats(func(st *Stats) {
		st.BytesWritten += int64(size)
		st.FlushCount++
	})

	if s.config.OnFlush != nil {
		s.config.OnFlush(size, time.Since(started))
	}
}

func (s *Sink[T]) fail(err error) {
	s.updateStats(func(st *Stats) { st.ErrorCount++ })
	s.logger.Warn().Err(err).Msg("sink error")
	if s.config.OnError != nil {
		s.config.OnError(err)
	}
}

func (s *Sink[T]) updateStats(updater func(*Stats)) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	updater(&s.stats)
}
