package pipeline

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kbukum/linepipe/errors"
)

// OrderedOption configures Ordered.
type OrderedOption func(*orderedOptions)

type orderedOptions struct {
	limiter *rate.Limiter
}

// MaxRateLimit is the highest rate WithRateLimit enforces. Rates at or
// above it are treated as unlimited.
const MaxRateLimit = 1e9

// WithRateLimit caps how many elements per second are handed to workers.
// A non-positive rate means unlimited.
func WithRateLimit(perSecond float64) OrderedOption {
	return func(o *orderedOptions) {
		if perSecond <= 0 || perSecond >= MaxRateLimit {
			o.limiter = nil
			return
		}
		burst := int(math.Ceil(perSecond))
		o.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// Ordered applies fn to every element on exactly workers goroutines and
// yields the results in source order, whatever order the workers finish in.
//
// A single producer pulls the source in order and, for each element, queues
// a one-slot future before handing the element to a worker. The consumer
// takes futures off that queue in submission order and blocks only on the
// one it needs next; later results wait in their futures. The queue holds at
// most workers futures, which bounds the work in flight.
//
// An error or panic in fn aborts the whole run: it is reported as a
// TRANSFORM_FAULT carrying the element's zero-based position (AppErrors from
// fn keep their code), outstanding work is cancelled and no further elements
// are yielded. workers <= 0 is an INVALID_CONFIG error, returned before the
// source is created.
func Ordered[I, O any](p *Pipeline[I], workers int, fn func(context.Context, I) (O, error), opts ...OrderedOption) *Pipeline[O] {
	var o orderedOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			if workers <= 0 {
				return &errIter[O]{err: errors.InvalidConfig("workers",
					fmt.Sprintf("worker count must be positive (got: %d)", workers))}
			}
			return startOrdered(ctx, p.create(ctx), workers, fn, o.limiter)
		},
	}
}

// Run applies t to every item with workers concurrent workers and returns
// the results in input order. On any error no partial results are returned.
func Run[T any](ctx context.Context, items []T, t Transform[T], workers int) ([]T, error) {
	out, err := Collect(ctx, Ordered(FromSlice(items), workers, t.Func()))
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

type job[I, O any] struct {
	pos    int64
	val    I
	future chan<- result[O]
}

type orderedIter[I, O any] struct {
	source  Iterator[I]
	pending <-chan chan result[O]
	ctx     context.Context
	cancel  context.CancelFunc
	group   *errgroup.Group

	waitOnce sync.Once
	waitErr  error
	done     bool
}

func startOrdered[I, O any](
	parent context.Context,
	source Iterator[I],
	workers int,
	fn func(context.Context, I) (O, error),
	limiter *rate.Limiter,
) *orderedIter[I, O] {
	runCtx, cancel := context.WithCancel(parent)
	g, gctx := errgroup.WithContext(runCtx)

	jobs := make(chan job[I, O])
	pending := make(chan chan result[O], workers)

	for range workers {
		g.Go(func() error {
			for j := range jobs {
				out, err := callStep(gctx, fn, j.pos, j.val)
				j.future <- result[O]{val: out, ok: err == nil, err: err}
				if err != nil {
					return err
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		defer close(pending)
		for pos := int64(0); ; pos++ {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}
			val, ok, err := source.Next(gctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			future := make(chan result[O], 1)
			select {
			case pending <- future:
			case <-gctx.Done():
				return gctx.Err()
			}
			select {
			case jobs <- job[I, O]{pos: pos, val: val, future: future}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	return &orderedIter[I, O]{
		source:  source,
		pending: pending,
		ctx:     gctx,
		cancel:  cancel,
		group:   g,
	}
}

// callStep runs fn for one element, turning failures and panics into
// errors that carry the element position.
func callStep[I, O any](ctx context.Context, fn func(context.Context, I) (O, error), pos int64, v I) (out O, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero O
			out, err = zero, errors.TransformFailed(pos, fmt.Errorf("panic: %v", r))
		}
	}()
	out, err = fn(ctx, v)
	if err == nil {
		return out, nil
	}
	if appErr, ok := errors.AsAppError(err); ok {
		// the step may return a shared error value
		return out, appErr.Clone().WithDetail("position", pos)
	}
	return out, errors.TransformFailed(pos, err)
}

func (it *orderedIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	if it.done {
		return zero, false, it.waitErr
	}

	var future chan result[O]
	select {
	case f, open := <-it.pending:
		if !open {
			return zero, false, it.finish(nil)
		}
		future = f
	case <-it.ctx.Done():
		return zero, false, it.finish(it.ctx.Err())
	case <-ctx.Done():
		return zero, false, it.finish(ctx.Err())
	}

	select {
	case r := <-future:
		if r.err != nil {
			return zero, false, it.finish(r.err)
		}
		return r.val, true, nil
	case <-it.ctx.Done():
		return zero, false, it.finish(it.ctx.Err())
	case <-ctx.Done():
		return zero, false, it.finish(ctx.Err())
	}
}

// finish stops the run and returns the error that ended it. The first
// error recorded by the group wins over the one observed by the caller.
func (it *orderedIter[I, O]) finish(observed error) error {
	if observed != nil {
		it.cancel()
	}
	err := it.wait()
	if err == nil {
		err = observed
	}
	it.done = true
	it.waitErr = err
	return err
}

func (it *orderedIter[I, O]) wait() error {
	it.waitOnce.Do(func() {
		err := it.group.Wait()
		it.cancel()
		if err != nil {
			it.waitErr = err
		}
	})
	return it.waitErr
}

// Close cancels outstanding work, waits for the producer and all workers to
// exit, then closes the source.
func (it *orderedIter[I, O]) Close() error {
	it.cancel()
	_ = it.wait()
	return it.source.Close()
}

type errIter[T any] struct {
	err error
}

func (it *errIter[T]) Next(context.Context) (T, bool, error) {
	var zero T
	return zero, false, it.err
}

func (it *errIter[T]) Close() error { return nil }
