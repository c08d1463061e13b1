package catalog

import (
	"maps"
	"slices"

	"github.com/kbukum/linepipe/pipeline"
	"github.com/kbukum/linepipe/util"
)

// Catalog maps operation names to Transforms over one element type.
//
// Register is meant for construction; once a catalog is shared it is only
// read, so lookups need no locking.
type Catalog[T any] struct {
	name string
	ops  map[string]pipeline.Transform[T]
}

// New creates an empty catalog for the named element type.
func New[T any](name string) *Catalog[T] {
	return &Catalog[T]{
		name: name,
		ops:  make(map[string]pipeline.Transform[T]),
	}
}

// Register adds or replaces op and returns the catalog for chaining.
func (c *Catalog[T]) Register(op string, t pipeline.Transform[T]) *Catalog[T] {
	c.ops[op] = t
	return c
}

// Lookup returns the Transform registered under op. Names match exactly,
// case included.
func (c *Catalog[T]) Lookup(op string) (pipeline.Transform[T], bool) {
	t, ok := c.ops[op]
	return t, ok
}

// Build composes the Transforms named by ops, in order. Unregistered names
// contribute the identity, so an unknown operation is a no-op rather than
// an error; use Unknown to report them.
func (c *Catalog[T]) Build(ops []string) pipeline.Transform[T] {
	t := pipeline.Identity[T]()
	for _, op := range ops {
		if step, ok := c.ops[op]; ok {
			t = t.Append(step)
		}
	}
	return t
}

// Unknown returns the names in ops that are not registered, in order of
// first appearance.
func (c *Catalog[T]) Unknown(ops []string) []string {
	var unknown []string
	for _, op := range ops {
		if _, ok := c.ops[op]; !ok {
			unknown = append(unknown, op)
		}
	}
	if unknown == nil {
		return nil
	}
	return util.Unique(unknown)
}

// Names returns the registered operation names, sorted.
func (c *Catalog[T]) Names() []string {
	return slices.Sorted(maps.Keys(c.ops))
}

// Name returns the element type name the catalog was created for.
func (c *Catalog[T]) Name() string {
	return c.name
}
