/*
Package seqflow provides a bounded-channel streaming runtime: backpressured
channels, supervised producers, and order-preserving parallel pipelines.

Streaming (pkg/streaming):
  - channel: bounded channels with overflow policies and async writes
  - transform: left-to-right element transform chains
  - producer: cursor-driven fetch-write loops with typed outcomes
  - supervisor: producer restart at the last unconsumed cursor
  - source: ready-made producer sources (slices, functions, Redis lists)
  - sink: batched channel-to-io.Writer draining

Scheduling (pkg/scheduling):
  - pipeline: W workers over one stream, output order equal to input order

Observability (pkg/metrics):
  - Prometheus collectors plus a cron-scheduled stats reporter

Example usage:

	import (
		"github.com/vnykmshr/seqflow/pkg/scheduling/pipeline"
		"github.com/vnykmshr/seqflow/pkg/streaming/channel"
		"github.com/vnykmshr/seqflow/pkg/streaming/transform"
	)

	in := channel.New[string](64)
	out := channel.New[string](64)

	chain := transform.NewChain(
		transform.Map("upper", func(s string) (string, error) {
			return strings.ToUpper(s), nil
		}),
	)

	p, _ := pipeline.New(pipeline.Config[string]{
		Workers:        4,
		Input:          in,
		Output:         out,
		Chain:          chain,
		PropagateClose: true,
	})
*/
package seqflow
