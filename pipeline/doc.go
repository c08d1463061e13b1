// Package pipeline composes element transformations and runs them over a
// lazy, pull-based stream on a bounded worker pool without losing order.
//
// # Transforms
//
// A Transform[T] is an immutable, ordered list of steps. Composition is pure
// append; the zero value is the identity. View lifts a Transform over a typed
// element to one over text using a parse and a format function.
//
//	t := pipeline.Of(strings.ToUpper).Then(reverse)
//	out, err := t.Apply("abC") // "CBA"
//
// # Streams
//
// Pipelines are lazy: no work happens until values are pulled via Collect or
// Drain. Each stage pulls from the previous one on demand.
//
//   - From / FromSlice: sources
//   - Tap: in-order side effect (statistics, progress)
//   - Ordered: parallel map on a fixed pool of workers, results in source order
//   - Drain / Collect: terminals
//
// # Usage
//
//	src := pipeline.From(reader)
//	out := pipeline.Ordered(src, 4, t.Func())
//	err := pipeline.Drain(out, writer.Write).Run(ctx)
//
// Run is the slice form:
//
//	results, err := pipeline.Run(ctx, []string{"a", "b"}, t, 4)
package pipeline
