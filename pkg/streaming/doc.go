/*
Package streaming provides the data plane of seqflow: bounded channels and the
components that feed and drain them.

This package groups five components:

  - channel: bounded, backpressured channels with overflow policies,
    synchronous rendezvous at capacity zero, and a bounded async-write queue
  - transform: ordered per-element transform chains with map, filter, and
    throttle steps
  - producer: cursor-driven fetch-write loops reporting typed outcomes
  - supervisor: producer lifecycle ownership with pluggable restart policies
  - source and sink: the edges — ready-made producer sources and a batched
    channel-to-io.Writer drain

Basic usage:

	ch := channel.New[string](64)

	p, _ := producer.New(producer.Config[string]{
		Source: source.Slice(lines),
		Output: ch,
	})
	outcome := p.Run(ctx)

Channel closure is the universal stop signal: every component treats a closed
channel as normal termination, never as a failure.
*/
package streaming
