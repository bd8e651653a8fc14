/*
Package scheduling provides the execution plane of seqflow.

Its single component today is pipeline: a fixed pool of workers applying a
transform chain to a stream while a reordering stage keeps the output in
exactly the order elements were read from the input.

	p, _ := pipeline.New(pipeline.Config[Event]{
		Workers:        8,
		Input:          in,
		Output:         out,
		Chain:          chain,
		PropagateClose: true,
	})
	err := p.Run(ctx)

Pipelines integrate with context for cancellation and are single-use: create
a new instance per run.
*/
package scheduling
