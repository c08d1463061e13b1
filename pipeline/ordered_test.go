package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/linepipe/errors"
)

// jitter makes completion order differ from submission order.
func jitter(n int) {
	if n%3 == 0 {
		time.Sleep(time.Duration(n%40) * time.Microsecond)
	}
}

func TestRun_PreservesOrder(t *testing.T) {
	items := make([]int, 1000)
	for i := range items {
		items[i] = rand.IntN(1_000_000)
	}
	tr := Identity[int]().
		Then(func(n int) int { jitter(n); return n*31 + 7 }).
		Then(func(n int) int { return n ^ 0x2a })

	want := make([]int, len(items))
	for i, v := range items {
		want[i], _ = tr.Apply(v)
	}

	for workers := 1; workers <= 32; workers++ {
		got, err := Run(context.Background(), items, tr, workers)
		if err != nil {
			t.Fatalf("workers=%d: unexpected error: %v", workers, err)
		}
		if !intSliceEqual(got, want) {
			t.Fatalf("workers=%d: output differs from sequential application", workers)
		}
	}
}

func TestRun_SingleWorkerIsSequential(t *testing.T) {
	var order []int
	tr := Of(func(n int) int { order = append(order, n); return -n })

	got, err := Run(context.Background(), []int{5, 3, 9, 1}, tr, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{-5, -3, -9, -1}) {
		t.Errorf("got %v", got)
	}
	// with one worker the calls themselves happen in input order
	if !intSliceEqual(order, []int{5, 3, 9, 1}) {
		t.Errorf("expected calls in input order, got %v", order)
	}
}

func TestRun_HoldsLaterResults(t *testing.T) {
	// the first element finishes last
	tr := Of(func(n int) int {
		if n == 0 {
			time.Sleep(30 * time.Millisecond)
		}
		return n
	})
	got, err := Run(context.Background(), []int{0, 1, 2, 3, 4, 5, 6, 7}, tr, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{0, 1, 2, 3, 4, 5, 6, 7}) {
		t.Errorf("got %v", got)
	}
}

func TestRun_Empty(t *testing.T) {
	got, err := Run(context.Background(), nil, Identity[int](), 3)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestRun_InvalidWorkers(t *testing.T) {
	for _, workers := range []int{0, -1} {
		_, err := Run(context.Background(), []int{1}, Identity[int](), workers)
		if !apperrors.IsCode(err, apperrors.ErrCodeInvalidConfig) {
			t.Errorf("workers=%d: expected INVALID_CONFIG, got %v", workers, err)
		}
	}
}

func TestOrdered_InvalidWorkersDoesNotTouchSource(t *testing.T) {
	created := false
	src := &Pipeline[int]{create: func(context.Context) Iterator[int] {
		created = true
		return &sliceIter[int]{items: []int{1}}
	}}
	_, err := Collect(context.Background(), Ordered(src, 0, Identity[int]().Func()))
	if !apperrors.IsCode(err, apperrors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
	if created {
		t.Error("source must not be created when the worker count is invalid")
	}
}

func TestRun_FaultAbortsWithPosition(t *testing.T) {
	boom := errors.New("boom")
	tr := Identity[int]().ThenTry(func(n int) (int, error) {
		if n == 5 {
			return 0, boom
		}
		return n, nil
	})
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	got, err := Run(context.Background(), items, tr, 3)
	if got != nil {
		t.Errorf("expected no partial results, got %v", got)
	}
	if !apperrors.IsCode(err, apperrors.ErrCodeTransformFault) {
		t.Fatalf("expected TRANSFORM_FAULT, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected the step error as cause, got %v", err)
	}
	appErr, _ := apperrors.AsAppError(err)
	if appErr.Details["position"] != int64(5) {
		t.Errorf("expected position 5, got %v", appErr.Details["position"])
	}
}

func TestRun_PanicBecomesFault(t *testing.T) {
	tr := Of(func(n int) int {
		if n == 2 {
			panic("bad element")
		}
		return n
	})
	_, err := Run(context.Background(), []int{1, 2, 3}, tr, 2)
	if !apperrors.IsCode(err, apperrors.ErrCodeTransformFault) {
		t.Fatalf("expected TRANSFORM_FAULT, got %v", err)
	}
	appErr, _ := apperrors.AsAppError(err)
	if appErr.Details["position"] != int64(1) {
		t.Errorf("expected position 1, got %v", appErr.Details["position"])
	}
}

func TestRun_AppErrorKeepsCode(t *testing.T) {
	tr := Identity[string]().ThenTry(func(s string) (string, error) {
		return "", apperrors.ParseFailed(s, "integer", nil)
	})
	_, err := Run(context.Background(), []string{"x"}, tr, 2)
	if !apperrors.IsCode(err, apperrors.ErrCodeParse) {
		t.Fatalf("expected PARSE_ERROR, got %v", err)
	}
	appErr, _ := apperrors.AsAppError(err)
	if appErr.Details["position"] != int64(0) {
		t.Errorf("expected position 0, got %v", appErr.Details["position"])
	}
}

func TestRun_SharedAppErrorIsNotModified(t *testing.T) {
	shared := apperrors.New(apperrors.ErrCodeTransformFault, "rejected")
	tr := Identity[int]().ThenTry(func(int) (int, error) { return 0, shared })

	items := make([]int, 200)
	for range 20 {
		_, err := Run(context.Background(), items, tr, 8)
		if !apperrors.IsCode(err, apperrors.ErrCodeTransformFault) {
			t.Fatalf("expected TRANSFORM_FAULT, got %v", err)
		}
		appErr, _ := apperrors.AsAppError(err)
		if appErr == shared {
			t.Fatal("expected a copy of the returned error")
		}
		if _, ok := appErr.Details["position"]; !ok {
			t.Error("expected position on the reported error")
		}
	}
	if len(shared.Details) != 0 {
		t.Errorf("shared error was modified: %v", shared.Details)
	}
}

func TestOrdered_SourceError(t *testing.T) {
	srcErr := errors.New("read failed")
	p := Ordered(From[int](&failingIter{after: 3, err: srcErr}), 2, Identity[int]().Func())

	got, err := Collect(context.Background(), p)
	if !errors.Is(err, srcErr) {
		t.Fatalf("expected source error, got %v", err)
	}
	if len(got) > 3 {
		t.Errorf("expected at most the 3 elements before the failure, got %v", got)
	}
}

func TestOrdered_WorkerBound(t *testing.T) {
	const workers = 4
	var inFlight, peak atomic.Int32
	fn := func(_ context.Context, n int) (int, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return n, nil
	}

	items := make([]int, 64)
	got, err := Collect(context.Background(), Ordered(FromSlice(items), workers, fn))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(got))
	}
	if p := peak.Load(); p > workers {
		t.Errorf("expected at most %d concurrent calls, saw %d", workers, p)
	}
}

func TestOrdered_CloseStopsWork(t *testing.T) {
	src := &closeTracker[int]{items: make([]int, 1000)}
	var calls atomic.Int32
	fn := func(ctx context.Context, n int) (int, error) {
		calls.Add(1)
		return n, nil
	}

	iter := Ordered(From[int](src), 2, fn).create(context.Background())
	if _, ok, err := iter.Next(context.Background()); !ok || err != nil {
		t.Fatalf("expected a first value, got ok=%v err=%v", ok, err)
	}
	if err := iter.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !src.closed {
		t.Error("expected source to be closed")
	}
	// the pending queue bounds how far the producer ran ahead
	if c := calls.Load(); c >= 1000 {
		t.Errorf("expected work to stop early, got %d calls", c)
	}
}

func TestOrdered_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fn := func(ctx context.Context, n int) (int, error) {
		if n == 10 {
			cancel()
		}
		return n, nil
	}
	items := make([]int, 10_000)
	for i := range items {
		items[i] = i
	}
	_, err := Collect(ctx, Ordered(FromSlice(items), 4, fn))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOrdered_RateLimit(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	start := time.Now()
	got, err := Collect(context.Background(),
		Ordered(FromSlice(items), 2, Identity[int]().Func(), WithRateLimit(1000)))
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, items) {
		t.Errorf("got %v", got)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("rate limit of 1000/s should not slow 5 elements noticeably")
	}

	var o orderedOptions
	WithRateLimit(10)(&o)
	WithRateLimit(0)(&o)
	if o.limiter != nil {
		t.Error("a zero rate should remove the limiter")
	}
}

func TestOrdered_HugeRateIsUnlimited(t *testing.T) {
	for _, r := range []float64{MaxRateLimit, 1e19, math.MaxFloat64, math.Inf(1)} {
		var o orderedOptions
		WithRateLimit(r)(&o)
		if o.limiter != nil {
			t.Errorf("rate %g: expected no limiter", r)
		}
	}

	got, err := Collect(context.Background(),
		Ordered(FromSlice([]int{1, 2, 3}), 2, Identity[int]().Func(), WithRateLimit(1e19)))
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v", got)
	}
}

func TestOrdered_TypeChange(t *testing.T) {
	p := Ordered(FromSlice([]int{1, 22, 333}), 3, func(_ context.Context, n int) (string, error) {
		return fmt.Sprintf("<%d>", n), nil
	})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(got) != "[<1> <22> <333>]" {
		t.Errorf("got %v", got)
	}
}
