/*
Package pipeline provides ordered parallel stream processing: a fixed pool of
workers applies a transform chain to a stream of elements while the output
preserves the exact order elements were read from the input.

A single feeder reads the input channel and numbers each element. Workers
process elements concurrently, and a reordering stage releases results to the
output channel strictly in sequence: result k is withheld until every result
below k has been released, even if k finished first.

# Quick Start

	in, _ := channel.NewWithConfig[int](channel.Config{Capacity: 16})
	out, _ := channel.NewWithConfig[int](channel.Config{Capacity: 16})

	chain := transform.NewChain(
		transform.Map("double", func(v int) (int, error) { return v * 2, nil }),
	)

	p, _ := pipeline.New(pipeline.Config[int]{
		Workers:        4,
		Input:          in,
		Output:         out,
		Chain:          chain,
		PropagateClose: true,
	})

	done := p.Start(context.Background())
	// ... feed in, read out ...
	err := <-done

# Error Handling

A chain failure on one element never stops the run. The OnError handler is
invoked at the element's release point, in sequence order, and decides between
a replacement element and skipping the position:

	config.OnError = func(elem int, err error) (int, bool) {
		return -1, true // release -1 in place of the failed element
	}

Returning false skips the position: the output has a gap in content, never a
gap in ordering.

# Lifecycle

A pipeline runs until the input channel closes and all in-flight elements have
been released. With PropagateClose set, the output channel is closed when the
run ends. A pipeline is single-use; Run on an already-run pipeline returns
ErrAlreadyRan.

# Statistics

	stats := p.Stats()
	fmt.Printf("released: %d skipped: %d max reorder depth: %d\n",
		stats.Released, stats.Skipped, stats.MaxReorderDepth)

Throughput scales with the worker count while per-element costs are
independent; a stream dominated by rare, very slow elements degrades toward
single-element latency because ordering forces later fast results to wait.
*/
package pipeline
