// Package runner executes one pipeline run: it resolves the element type
// and operations into a Transform, applies it to every record with the
// ordered parallel executor, writes results in source order and counts them.
//
// Each run gets a run id, a "linepipe.run" trace span and run metrics.
// Unknown operation names are reported once as a warning and otherwise
// ignored.
package runner
