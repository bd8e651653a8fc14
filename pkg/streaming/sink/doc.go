/*
Package sink drains a channel into an io.Writer with batched, buffered writes.

A sink is the terminal stage of a stream: it encodes each element, accumulates
bytes up to a threshold, and flushes in batches so a slow writer never adds
per-element latency upstream. A timer flushes partial buffers during quiet
periods. Channel closure is normal termination; the final flush happens before
Run returns.

# Quick Start

	out := channel.New[Event](64)

	s, _ := sink.New(sink.Config[Event]{
		Input:  out,
		Writer: file,
		Encode: sink.JSONLines[Event](),
	})

	go func() { _ = s.Run(context.Background()) }()

Like the producer and pipeline runners, a sink is single-use.
*/
package sink
