package pipeline

import (
	"context"
	"slices"
)

// Step is one fallible unit of a Transform. A returned error aborts the
// chain for that element.
type Step[T any] func(T) (T, error)

// Transform is an ordered composition of steps over a single element type.
//
// A Transform is a value: every composing method returns a new Transform
// whose step list does not share backing storage with the receiver, so a
// handle held elsewhere never changes. The zero value is the identity.
type Transform[T any] struct {
	steps []Step[T]
}

// Identity returns the Transform that yields its input unchanged.
func Identity[T any]() Transform[T] {
	return Transform[T]{}
}

// Of composes infallible functions in the given order.
func Of[T any](fns ...func(T) T) Transform[T] {
	t := Identity[T]()
	for _, fn := range fns {
		t = t.Then(fn)
	}
	return t
}

// Then returns a Transform that applies t, then fn.
func (t Transform[T]) Then(fn func(T) T) Transform[T] {
	return t.ThenTry(func(v T) (T, error) {
		return fn(v), nil
	})
}

// ThenTry returns a Transform that applies t, then step.
func (t Transform[T]) ThenTry(step Step[T]) Transform[T] {
	return Transform[T]{steps: slices.Concat(t.steps, []Step[T]{step})}
}

// Append returns a Transform that applies t, then every step of other in
// other's order. Equivalent to calling ThenTry once per step of other.
func (t Transform[T]) Append(other Transform[T]) Transform[T] {
	return Transform[T]{steps: slices.Concat(t.steps, other.steps)}
}

// Apply runs the composed chain on v. The first failing step stops the
// chain and its error is returned unchanged.
func (t Transform[T]) Apply(v T) (T, error) {
	for _, step := range t.steps {
		var err error
		if v, err = step(v); err != nil {
			var zero T
			return zero, err
		}
	}
	return v, nil
}

// Len reports the number of composed steps. The identity has none.
func (t Transform[T]) Len() int {
	return len(t.steps)
}

// Func adapts t to the worker signature of Ordered.
func (t Transform[T]) Func() func(context.Context, T) (T, error) {
	return func(_ context.Context, v T) (T, error) {
		return t.Apply(v)
	}
}
