package channel

import "sync/atomic"

// SendAsync implements Channel.SendAsync.
//
// The pending-write queue is a second overflow point, distinct from the
// buffer: the buffer overflows by policy (block or drop), while the queue
// overflows only into a hard ErrTooManyPendingWrites. A stalled reader must
// surface as an error to the writer, not as silently growing memory.
func (ch *channel[T]) SendAsync(value T) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if atomic.LoadInt32(&ch.closed) != 0 {
		return ErrClosed
	}

	// Fast path: buffer space available and nothing queued ahead of us.
	if ch.config.Capacity > 0 && ch.count < len(ch.buffer) && len(ch.pending) == 0 {
		ch.addLocked(value)
		ch.updateStats(func(s *Stats) { s.SendCount++ })
		ch.recvCond.Signal()
		return nil
	}

	if len(ch.pending) >= ch.config.PendingWriteLimit {
		return ErrTooManyPendingWrites
	}

	ch.pending = append(ch.pending, value)
	ch.notePending()
	ch.updateStats(func(s *Stats) { s.SendCount++ })
	ch.recvCond.Signal()

	return nil
}

// popPendingLocked removes the oldest pending write. Caller must hold ch.mu.
func (ch *channel[T]) popPendingLocked() T {
	value := ch.pending[0]
	var zero T
	ch.pending[0] = zero // clear reference
	ch.pending = ch.pending[1:]
	if len(ch.pending) == 0 {
		ch.pending = nil
	}
	return value
}

// drainPendingLocked refills the buffer from the pending-write queue,
// preserving FIFO order across both. Caller must hold ch.mu.
func (ch *channel[T]) drainPendingLocked() {
	if ch.config.Capacity == 0 {
		return
	}
	for len(ch.pending) > 0 && ch.count < len(ch.buffer) {
		ch.addLocked(ch.popPendingLocked())
		ch.recvCond.Signal()
	}
}

// notePending records the pending queue high-water mark. Caller must hold ch.mu.
func (ch *channel[T]) notePending() {
	depth := len(ch.pending)
	ch.updateStats(func(s *Stats) {
		if depth > s.PendingHighWater {
			s.PendingHighWater = depth
		}
	})
}
