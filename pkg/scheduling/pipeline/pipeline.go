package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/common/validation"
	"github.com/vnykmshr/seqflow/pkg/streaming/channel"
	"github.com/vnykmshr/seqflow/pkg/streaming/transform"
)

// ErrAlreadyRan is returned by Run on a pipeline that has already run.
// Pipelines are single-use; create a new instance instead.
var ErrAlreadyRan = sferrors.ErrAlreadyRan

// Config holds configuration for a Pipeline.
type Config[T any] struct {
	// Workers is the number of concurrent workers applying the chain.
	// Defaults to 1.
	Workers int

	// Input supplies elements. The pipeline is its single reader.
	Input channel.Channel[T]

	// Output receives transformed elements in input order.
	Output channel.Channel[T]

	// Chain is applied to every element. Nil means identity.
	Chain *transform.Chain[T]

	// OnError decides what happens when the chain fails on an element. It
	// returns a replacement element and true to release the replacement at the
	// element's position, or false to skip the position entirely. It is called
	// at the release point, so invocations are in sequence order. It must not
	// block. Nil means skip.
	OnError func(elem T, err error) (T, bool)

	// PropagateClose closes Output when the run ends.
	PropagateClose bool

	// Logger receives pipeline events. Nil disables logging.
	Logger *zerolog.Logger

	// OnRelease is called after an element is written to Output.
	OnRelease func(seq uint64, elem T)

	// OnSkip is called when a position is skipped, whether by a filter step or
	// by the error handler.
	OnSkip func(seq uint64)

	// OnElementDone is called after each worker finishes an element, before
	// reordering. Useful for latency instrumentation.
	OnElementDone func(seq uint64, d time.Duration, err error)
}

// Stats holds pipeline counters for one run.
type Stats struct {
	// Processed counts elements taken from Input and run through the chain.
	Processed int64

	// Released counts elements written to Output.
	Released int64

	// Skipped counts positions dropped by a filter step or the error handler.
	Skipped int64

	// Errored counts elements whose chain application failed.
	Errored int64

	// MaxReorderDepth is the largest number of results held back waiting for
	// a predecessor.
	MaxReorderDepth int

	// Duration is wall time of the run, set when Run returns.
	Duration time.Duration
}

// Pipeline applies a transform chain to a stream of elements using a fixed
// pool of workers while preserving global input order: the element read n-th
// from Input is written n-th to Output, regardless of which worker processed
// it or how long it took.
type Pipeline[T any] struct {
	config Config[T]
	logger zerolog.Logger
	ran    atomic.Bool

	statsMu sync.Mutex
	stats   Stats
}

// job pairs an element with its position in the input sequence.
type job[T any] struct {
	seq  uint64
	elem T
}

// outcome is one worker's result for one position.
type outcome[T any] struct {
	seq     uint64
	elem    T
	err     error
	skipped bool
}

// New creates a Pipeline from the given configuration.
func New[T any](config Config[T]) (*Pipeline[T], error) {
	if config.Input == nil {
		return nil, validation.ValidateNotNil("pipeline", "Input", nil)
	}
	if config.Output == nil {
		return nil, validation.ValidateNotNil("pipeline", "Output", nil)
	}
	if config.Workers < 0 {
		return nil, validation.ValidatePositive("pipeline", "Workers", config.Workers)
	}
	if config.Workers == 0 {
		config.Workers = 1
	}
	if config.Chain == nil {
		config.Chain = transform.NewChain[T]()
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &Pipeline[T]{
		config: config,
		logger: logger.With().Str("component", "pipeline").Logger(),
	}, nil
}

// Run processes Input until it closes and every in-flight element has been
// released, then returns nil. Context cancellation is a stop signal, not a
// failure: the run winds down promptly and Run returns nil. Output closing
// mid-run is a defect of the arrangement and returns an error. A second call
// returns ErrAlreadyRan.
func (p *Pipeline[T]) Run(ctx context.Context) error {
	if !p.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRan
	}

	start := time.Now()
	defer func() {
		p.statsMu.Lock()
		p.stats.Duration = time.Since(start)
		p.statsMu.Unlock()
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan job[T], p.config.Workers)
	results := make(chan outcome[T], p.config.Workers)

	var workers sync.WaitGroup
	workers.Add(p.config.Workers)
	for i := 0; i < p.config.Workers; i++ {
		go func() {
			defer workers.Done()
			p.work(runCtx, jobs, results)
		}()
	}

	// Single reader of Input: sequence numbers are assigned in read order.
	go p.feed(runCtx, jobs)

	go func() {
		workers.Wait()
		close(results)
	}()

	runErr := p.reorder(runCtx, cancel, results)

	stats := p.snapshotStats()
	p.logger.Info().
		Int64("released", stats.Released).
		Int64("skipped", stats.Skipped).
		Msg("run complete")

	if p.config.PropagateClose {
		_ = p.config.Output.Close()
	}
	return runErr
}

// Start runs the pipeline in its own goroutine and returns a channel that
// receives the terminal result of Run.
func (p *Pipeline[T]) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx)
		close(done)
	}()
	return done
}

// Stats returns a snapshot of the run counters.
func (p *Pipeline[T]) Stats() Stats {
	return p.snapshotStats()
}

// feed reads Input and dispatches numbered jobs to the workers. Closing the
// jobs channel is what winds the workers down.
func (p *Pipeline[T]) feed(ctx context.Context, jobs chan<- job[T]) {
	defer close(jobs)

	var seq uint64
	for {
		elem, err := p.config.Input.Receive(ctx)
		if err != nil {
			// Closed input is the normal end of the stream; cancellation is an
			// external stop. Neither is a failure of the feed.
			return
		}

		select {
		case jobs <- job[T]{seq: seq, elem: elem}:
			seq++
		case <-ctx.Done():
			return
		}
	}
}

// work applies the chain to jobs until the jobs channel closes. Every job
// produces exactly one outcome, panics included, so the reorder stage never
// waits on a hole in the sequence.
func (p *Pipeline[T]) work(ctx context.Context, jobs <-chan job[T], results chan<- outcome[T]) {
	for j := range jobs {
		results <- p.apply(ctx, j)
	}
}

func (p *Pipeline[T]) apply(ctx context.Context, j job[T]) (out outcome[T]) {
	out = outcome[T]{seq: j.seq, elem: j.elem}
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out.err = fmt.Errorf("transform panicked at sequence %d: %v", j.seq, r)
		}
		p.updateStats(func(s *Stats) {
			s.Processed++
			if out.err != nil {
				s.Errored++
			}
		})
		if p.config.OnElementDone != nil {
			p.config.OnElementDone(j.seq, time.Since(started), out.err)
		}
	}()

	result, kept, err := p.config.Chain.Apply(ctx, j.elem)
	if err != nil {
		out.err = err
		return out
	}
	out.elem = result
	out.skipped = !kept
	return out
}

// reorder collects worker outcomes and releases them to Output strictly in
// sequence order: position k is withheld until every position below k has
// been released, even when k finished first.
func (p *Pipeline[T]) reorder(ctx context.Context, cancel context.CancelFunc, results <-chan outcome[T]) error {
	held := make(map[uint64]outcome[T])
	var next uint64
	var runErr error

	for out := range results {
		held[out.seq] = out
		if depth := len(held); depth > 0 {
			p.updateStats(func(s *Stats) {
				if depth > s.MaxReorderDepth {
					s.MaxReorderDepth = depth
				}
			})
		}

		for {
			ready, ok := held[next]
			if !ok {
				break
			}
			delete(held, next)
			next++

			if runErr != nil || ctx.Err() != nil {
				continue // draining; nothing more is released
			}
			if err := p.release(ctx, ready); err != nil {
				// Output closed under us. That is a defect of the arrangement:
				// stop the run and surface it.
				runErr = err
				cancel()
			}
		}
	}

	if runErr != nil {
		return runErr
	}
	return nil
}

// release resolves one in-order outcome: skip, error-handle, or write.
func (p *Pipeline[T]) release(ctx context.Context, out outcome[T]) error {
	elem := out.elem

	if out.err != nil {
		p.logger.Warn().Uint64("seq", out.seq).Err(out.err).Msg("element failed")
		if p.config.OnError == nil {
			p.skip(out.seq)
			return nil
		}
		replacement, keep := p.config.OnError(elem, out.err)
		if !keep {
			p.skip(out.seq)
			return nil
		}
		elem = replacement
	} else if out.skipped {
		p.skip(out.seq)
		return nil
	}

	if err := p.config.Output.Send(ctx, elem); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("write sequence %d: %w", out.seq, err)
	}

	p.updateStats(func(s *Stats) { s.Released++ })
	if p.config.OnRelease != nil {
		p.config.OnRelease(out.seq, elem)
	}
	return nil
}

func (p *Pipeline[T]) skip(seq uint64) {
	p.updateStats(func(s *Stats) { s.Skipped++ })
	if p.config.OnSkip != nil {
		p.config.OnSkip(seq)
	}
}

func (p *Pipeline[T]) updateStats(updater func(*Stats)) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	updater(&p.stats)
}

func (p *Pipeline[T]) snapshotStats() Stats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.stats
}
