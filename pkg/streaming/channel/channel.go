package channel

import (
	"context"
	"sync"
	"sync/atomic"

	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/common/validation"
)

// OverflowPolicy defines how the channel handles a write when the buffer is full.
type OverflowPolicy int

const (
	// Block policy blocks the producer until space is available.
	Block OverflowPolicy = iota

	// DropOldest policy evicts the oldest buffered value to make room.
	DropOldest

	// DropNewest policy discards the value being written.
	DropNewest

	// Error policy returns ErrFull when the buffer is full.
	Error
)

// Sentinel errors for channel operations. These alias the shared taxonomy in
// pkg/common/errors so callers can match against either package.
var (
	// ErrClosed is returned when operating on a closed channel.
	ErrClosed = sferrors.ErrClosed

	// ErrFull is returned when the buffer is full and the policy is Error.
	ErrFull = sferrors.ErrFull

	// ErrTooManyPendingWrites is returned by SendAsync when the pending-write
	// queue limit is exceeded. This is a hard failure, never a silent drop.
	ErrTooManyPendingWrites = sferrors.ErrTooManyPendingWrites
)

// Channel is a bounded FIFO conduit for values between concurrent tasks, with
// blocking semantics on full or empty and configurable overflow behavior.
type Channel[T any] interface {
	// Send writes a value, blocking while the buffer is full under the Block
	// policy. It returns ErrClosed if the channel has been closed.
	Send(ctx context.Context, value T) error

	// TrySend attempts to write a value without blocking.
	TrySend(value T) error

	// SendAsync never blocks: if the write cannot complete immediately it is
	// queued on an internal pending-write queue bounded independently of the
	// buffer capacity. Exceeding that bound returns ErrTooManyPendingWrites.
	SendAsync(value T) error

	// Receive reads the next value in FIFO order, blocking while the channel
	// is open and empty. Once the channel is closed and drained it returns
	// ErrClosed.
	Receive(ctx context.Context) (T, error)

	// TryReceive attempts to read a value without blocking.
	TryReceive() (T, bool, error)

	// Close closes the channel for writing and wakes all blocked tasks.
	// It is idempotent and should only be called by the channel's owner.
	Close() error

	// IsClosed returns true if the channel is closed.
	IsClosed() bool

	// Len returns the current number of buffered values.
	Len() int

	// Cap returns the buffer capacity. Zero means synchronous hand-off.
	Cap() int

	// Pending returns the current length of the pending-write queue.
	Pending() int

	// Stats returns channel statistics.
	Stats() Stats
}

// Stats holds counters describing channel activity.
type Stats struct {
	// SendCount is the total number of completed writes.
	SendCount int64

	// ReceiveCount is the total number of completed reads.
	ReceiveCount int64

	// DroppedCount is the total number of values dropped by overflow policy.
	DroppedCount int64

	// BlockedSends is the number of writes that had to block.
	BlockedSends int64

	// PendingWrites is the current pending-write queue length.
	PendingWrites int

	// PendingHighWater is the maximum pending-write queue length observed.
	PendingHighWater int

	// BufferUtilization is the current buffer fill ratio (0.0 to 1.0).
	BufferUtilization float64
}

// Config holds configuration for a Channel.
type Config struct {
	// Capacity is the buffer capacity. Zero selects synchronous hand-off:
	// every Send rendezvouses with a Receive.
	Capacity int

	// Policy defines the buffer overflow behavior.
	Policy OverflowPolicy

	// PendingWriteLimit bounds the SendAsync queue. This limit is independent
	// of Capacity; exceeding it is a configuration error, not a drop.
	PendingWriteLimit int

	// OnDrop is called with each value dropped by DropOldest or DropNewest.
	OnDrop func(value interface{})

	// OnBlock is called each time a Send has to block.
	OnBlock func()
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:          100,
		Policy:            Block,
		PendingWriteLimit: 1024,
	}
}

// handoffCell carries one rendezvous value. The receiver sets taken at the
// moment it removes the cell from the slot, so an untaken cell is always the
// one still in flight and a sender can always tell whether the slot holds its
// own value.
type handoffCell[T any] struct {
	value T
	taken bool
}

// channel implements Channel.
type channel[T any] struct {
	config Config
	mu     sync.Mutex

	// Ring buffer; nil when Capacity is zero.
	buffer []T
	head   int
	tail   int
	count  int

	// Pending writes queued by SendAsync.
	pending []T

	// Rendezvous state for zero-capacity channels.
	recvWaiting int
	handoff     *handoffCell[T]

	closed int32

	sendCond *sync.Cond
	recvCond *sync.Cond

	stats   Stats
	statsMu sync.Mutex
}

// New creates a Channel with the given capacity and default configuration.
// A negative capacity is treated as zero.
func New[T any](capacity int) Channel[T] {
	config := DefaultConfig()
	if capacity < 0 {
		capacity = 0
	}
	config.Capacity = capacity
	ch, _ := NewWithConfig[T](config)
	return ch
}

// NewWithConfig creates a Channel with the specified configuration.
func NewWithConfig[T any](config Config) (Channel[T], error) {
	if err := validation.ValidateNonNegative("channel", "Capacity", config.Capacity); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("channel", "PendingWriteLimit", config.PendingWriteLimit); err != nil {
		return nil, err
	}
	if config.Policy < Block || config.Policy > Error {
		return nil, sferrors.NewValidationError("channel", "Policy", config.Policy, "unknown overflow policy")
	}
	if config.PendingWriteLimit == 0 {
		config.PendingWriteLimit = DefaultConfig().PendingWriteLimit
	}

	ch := &channel[T]{config: config}
	if config.Capacity > 0 {
		ch.buffer = make([]T, config.Capacity)
	}
	ch.sendCond = sync.NewCond(&ch.mu)
	ch.recvCond = sync.NewCond(&ch.mu)

	return ch, nil
}

// Send implements Channel.Send.
func (ch *channel[T]) Send(ctx context.Context, value T) error {
	if ch.IsClosed() {
		return ErrClosed
	}

	if ch.config.Capacity == 0 {
		return ch.rendezvousSend(ctx, value)
	}

	switch ch.config.Policy {
	case DropOldest:
		return ch.dropOldestSend(value)
	case DropNewest:
		return ch.dropNewestSend(value)
	case Error:
		return ch.errorSend(value)
	default:
		return ch.blockingSend(ctx, value)
	}
}

// TrySend implements Channel.TrySend.
func (ch *channel[T]) TrySend(value T) error {
	if ch.IsClosed() {
		return ErrClosed
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.config.Capacity == 0 {
		// Without a buffer a non-blocking write can only succeed when a
		// receiver is already parked and no hand-off is in flight.
		if ch.recvWaiting > 0 && ch.handoff == nil && len(ch.pending) == 0 {
			ch.pending = append(ch.pending, value)
			ch.notePending()
			ch.updateStats(func(s *Stats) { s.SendCount++ })
			ch.recvCond.Signal()
			return nil
		}
		return ErrFull
	}

	if ch.count >= len(ch.buffer) {
		switch ch.config.Policy {
		case DropNewest:
			ch.updateStats(func(s *Stats) { s.DroppedCount++ })
			if ch.config.OnDrop != nil {
				ch.config.OnDrop(value)
			}
			return nil
		case DropOldest:
			dropped := ch.removeLocked()
			ch.addLocked(value)
			ch.updateStats(func(s *Stats) {
				s.SendCount++
				s.DroppedCount++
			})
			if ch.config.OnDrop != nil {
				ch.config.OnDrop(dropped)
			}
			ch.recvCond.Signal()
			return nil
		default:
			return ErrFull
		}
	}

	ch.addLocked(value)
	ch.updateStats(func(s *Stats) { s.SendCount++ })
	ch.recvCond.Signal()

	return nil
}

// Receive implements Channel.Receive.
func (ch *channel[T]) Receive(ctx context.Context) (T, error) {
	var zero T

	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.config.Capacity == 0 {
		return ch.rendezvousReceiveLocked(ctx)
	}

	unwatch := func() {}
	defer func() { unwatch() }()

	watching := false
	for ch.count == 0 && len(ch.pending) == 0 && atomic.LoadInt32(&ch.closed) == 0 {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}
		if !watching {
			unwatch = ch.watchCancel(ctx)
			watching = true
		}
		ch.recvCond.Wait()
	}

	// Closed channels remain readable until drained.
	if ch.count == 0 && len(ch.pending) == 0 {
		return zero, ErrClosed
	}

	value := ch.takeLocked()
	ch.updateStats(func(s *Stats) { s.ReceiveCount++ })
	ch.sendCond.Signal()

	return value, nil
}

// TryReceive implements Channel.TryReceive.
func (ch *channel[T]) TryReceive() (T, bool, error) {
	var zero T

	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.count == 0 && len(ch.pending) == 0 && ch.handoff == nil {
		if atomic.LoadInt32(&ch.closed) != 0 {
			return zero, false, ErrClosed
		}
		return zero, false, nil
	}

	value := ch.takeLocked()
	ch.updateStats(func(s *Stats) { s.ReceiveCount++ })
	ch.sendCond.Broadcast()

	return value, true, nil
}

// Close implements Channel.Close.
func (ch *channel[T]) Close() error {
	if !atomic.CompareAndSwapInt32(&ch.closed, 0, 1) {
		return nil // already closed
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.sendCond.Broadcast()
	ch.recvCond.Broadcast()

	return nil
}

// IsClosed implements Channel.IsClosed.
func (ch *channel[T]) IsClosed() bool {
	return atomic.LoadInt32(&ch.closed) != 0
}

// Len implements Channel.Len.
func (ch *channel[T]) Len() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.count
}

// Cap implements Channel.Cap.
func (ch *channel[T]) Cap() int {
	return ch.config.Capacity
}

// Pending implements Channel.Pending.
func (ch *channel[T]) Pending() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.pending)
}

// Stats implements Channel.Stats.
func (ch *channel[T]) Stats() Stats {
	ch.statsMu.Lock()
	stats := ch.stats
	ch.statsMu.Unlock()

	ch.mu.Lock()
	stats.PendingWrites = len(ch.pending)
	if len(ch.buffer) > 0 {
		stats.BufferUtilization = float64(ch.count) / float64(len(ch.buffer))
	}
	ch.mu.Unlock()

	return stats
}

// watchCancel arranges for a context cancellation to wake every parked task
// on this channel, so a blocked Send or Receive observes it promptly. The
// returned stop function must be called once the wait is over.
func (ch *channel[T]) watchCancel(ctx context.Context) func() {
	if ctx.Done() == nil {
		return func() {}
	}
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			ch.mu.Lock()
			ch.sendCond.Broadcast()
			ch.recvCond.Broadcast()
			ch.mu.Unlock()
		case <-stop:
		}
	}()
	return func() { close(stop) }
}

// blockingSend writes with the Block policy.
func (ch *channel[T]) blockingSend(ctx context.Context, value T) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	unwatch := func() {}
	defer func() { unwatch() }()

	watching := false
	for ch.count >= len(ch.buffer) && atomic.LoadInt32(&ch.closed) == 0 {
		if ch.config.OnBlock != nil {
			ch.config.OnBlock()
		}
		ch.updateStats(func(s *Stats) { s.BlockedSends++ })

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !watching {
			unwatch = ch.watchCancel(ctx)
			watching = true
		}
		ch.sendCond.Wait()
	}

	if atomic.LoadInt32(&ch.closed) != 0 {
		return ErrClosed
	}

	ch.addLocked(value)
	ch.updateStats(func(s *Stats) { s.SendCount++ })
	ch.recvCond.Signal()

	return nil
}

// dropOldestSend writes with the DropOldest policy.
func (ch *channel[T]) dropOldestSend(value T) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if atomic.LoadInt32(&ch.closed) != 0 {
		return ErrClosed
	}

	if ch.count >= len(ch.buffer) {
		dropped := ch.removeLocked()
		ch.updateStats(func(s *Stats) { s.DroppedCount++ })
		if ch.config.OnDrop != nil {
			ch.config.OnDrop(dropped)
		}
	}

	ch.addLocked(value)
	ch.updateStats(func(s *Stats) { s.SendCount++ })
	ch.recvCond.Signal()

	return nil
}

// dropNewestSend writes with the DropNewest policy.
func (ch *channel[T]) dropNewestSend(value T) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if atomic.LoadInt32(&ch.closed) != 0 {
		return ErrClosed
	}

	if ch.count >= len(ch.buffer) {
		ch.updateStats(func(s *Stats) { s.DroppedCount++ })
		if ch.config.OnDrop != nil {
			ch.config.OnDrop(value)
		}
		return nil
	}

	ch.addLocked(value)
	ch.updateStats(func(s *Stats) { s.SendCount++ })
	ch.recvCond.Signal()

	return nil
}

// errorSend writes with the Error policy.
func (ch *channel[T]) errorSend(value T) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if atomic.LoadInt32(&ch.closed) != 0 {
		return ErrClosed
	}

	if ch.count >= len(ch.buffer) {
		return ErrFull
	}

	ch.addLocked(value)
	ch.updateStats(func(s *Stats) { s.SendCount++ })
	ch.recvCond.Signal()

	return nil
}

// rendezvousSend performs a synchronous hand-off on a zero-capacity channel.
// The sender parks until a receiver is present, places its cell in the
// hand-off slot, then parks again until the receiver takes it.
func (ch *channel[T]) rendezvousSend(ctx context.Context, value T) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	unwatch := func() {}
	defer func() { unwatch() }()

	watching := false
	for atomic.LoadInt32(&ch.closed) == 0 && (ch.recvWaiting == 0 || ch.handoff != nil) {
		if ch.config.OnBlock != nil {
			ch.config.OnBlock()
		}
		ch.updateStats(func(s *Stats) { s.BlockedSends++ })

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !watching {
			unwatch = ch.watchCancel(ctx)
			watching = true
		}
		ch.sendCond.Wait()
	}

	if atomic.LoadInt32(&ch.closed) != 0 {
		return ErrClosed
	}

	cell := &handoffCell[T]{value: value}
	ch.handoff = cell
	ch.recvCond.Signal()

	// Wait for a receiver to take the cell. While the cell is untaken it is
	// still the one in the slot, so retracting on cancellation or close can
	// never touch a later sender's value. A taken cell means the value was
	// delivered: report success even if the context was canceled meanwhile.
	for !cell.taken && atomic.LoadInt32(&ch.closed) == 0 {
		select {
		case <-ctx.Done():
			ch.handoff = nil
			ch.sendCond.Broadcast()
			return ctx.Err()
		default:
		}
		if !watching {
			unwatch = ch.watchCancel(ctx)
			watching = true
		}
		ch.sendCond.Wait()
	}

	if !cell.taken {
		ch.handoff = nil
		return ErrClosed
	}

	ch.updateStats(func(s *Stats) { s.SendCount++ })
	return nil
}

// rendezvousReceiveLocked receives from a zero-capacity channel.
// Caller must hold ch.mu.
func (ch *channel[T]) rendezvousReceiveLocked(ctx context.Context) (T, error) {
	var zero T

	ch.recvWaiting++
	ch.sendCond.Broadcast()

	unwatch := func() {}
	defer func() { unwatch() }()

	watching := false
	for ch.handoff == nil && len(ch.pending) == 0 && atomic.LoadInt32(&ch.closed) == 0 {
		select {
		case <-ctx.Done():
			ch.recvWaiting--
			return zero, ctx.Err()
		default:
		}
		if !watching {
			unwatch = ch.watchCancel(ctx)
			watching = true
		}
		ch.recvCond.Wait()
	}

	ch.recvWaiting--

	// An in-flight hand-off or queued async write is still deliverable after
	// close; the channel drains before reporting ErrClosed.
	if ch.handoff != nil {
		value := ch.takeHandoffLocked()
		ch.updateStats(func(s *Stats) { s.ReceiveCount++ })
		ch.sendCond.Broadcast()
		return value, nil
	}
	if len(ch.pending) > 0 {
		value := ch.popPendingLocked()
		ch.updateStats(func(s *Stats) { s.ReceiveCount++ })
		return value, nil
	}

	return zero, ErrClosed
}

// addLocked appends a value to the ring buffer. Caller must hold ch.mu.
func (ch *channel[T]) addLocked(value T) {
	ch.buffer[ch.tail] = value
	ch.tail = (ch.tail + 1) % len(ch.buffer)
	ch.count++
}

// removeLocked removes the oldest value from the ring buffer.
// Caller must hold ch.mu.
func (ch *channel[T]) removeLocked() T {
	value := ch.buffer[ch.head]
	var zero T
	ch.buffer[ch.head] = zero // clear reference
	ch.head = (ch.head + 1) % len(ch.buffer)
	ch.count--
	return value
}

// takeLocked removes the next value in FIFO order, consulting the buffer
// first, then the hand-off slot, then the pending-write queue, and refills
// the buffer from pending writes. Caller must hold ch.mu.
func (ch *channel[T]) takeLocked() T {
	var value T
	switch {
	case ch.count > 0:
		value = ch.removeLocked()
	case ch.handoff != nil:
		value = ch.takeHandoffLocked()
	default:
		value = ch.popPendingLocked()
	}
	ch.drainPendingLocked()
	return value
}

// takeHandoffLocked removes the in-flight hand-off and marks it delivered.
// Caller must hold ch.mu.
func (ch *channel[T]) takeHandoffLocked() T {
	cell := ch.handoff
	cell.taken = true
	ch.handoff = nil
	return cell.value
}

// updateStats safely updates statistics.
func (ch *channel[T]) updateStats(updater func(*Stats)) {
	ch.statsMu.Lock()
	defer ch.statsMu.Unlock()
	updater(&ch.stats)
}
