/*
Package transform provides ordered, left-to-right composition of per-element
transformations for use in streaming pipelines.

A Chain is an explicit, directional sequence of steps, each mapping an element
to a new element, skipping it, or failing. Composition direction is always
left-to-right: step one's output feeds step two's input.

	counted := 0
	chain := transform.NewChain(
		transform.Filter("non-empty", func(s string) bool { return s != "" }),
		transform.Map("upper", func(s string) (string, error) {
			return strings.ToUpper(s), nil
		}),
		transform.Tap("count", func(string) { counted++ }),
	)

	out, kept, err := chain.Apply(ctx, "hello")

Steps may carry state through closures and may perform bounded side effects,
but must not block indefinitely; a blocking step stalls every pipeline worker
that runs it.
*/
package transform
