/*
Package channel provides bounded, backpressure-aware channels for flow control
between concurrent tasks.

A Channel is a bounded FIFO conduit with two distinct overflow points. The
buffer overflows according to a configurable policy (Block, DropOldest,
DropNewest, Error), while the asynchronous pending-write queue used by
SendAsync overflows only into a hard ErrTooManyPendingWrites: a stalled reader
surfaces as an error to the writer instead of silently growing memory.

Overflow Policies:

Block (the default) suspends the sender until space is available, providing
natural backpressure:

	ch := channel.New[int](10)
	err := ch.Send(ctx, value) // blocks while the buffer is full

DropOldest evicts the oldest buffered value; DropNewest discards the value
being written; Error returns ErrFull. Dropped values are reported through the
OnDrop callback:

	ch, err := channel.NewWithConfig[Event](channel.Config{
		Capacity: 1000,
		Policy:   channel.DropOldest,
		OnDrop: func(value interface{}) {
			log.Printf("dropped: %v", value)
		},
	})

Synchronous Hand-off:

A capacity of zero turns the channel into a rendezvous point: Send blocks
until a Receive is in progress, and the value is transferred exactly once.

	ch := channel.New[string](0)

Lifecycle:

A channel is closed exactly once by its owning producer or pipeline stage.
Close wakes every blocked sender and receiver; buffered and already-queued
values remain readable until drained, after which Receive returns ErrClosed.
Tasks should treat ErrClosed as a termination signal, not a failure.

All operations are safe for concurrent use.
*/
package channel
