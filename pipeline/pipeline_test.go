package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFromSlice_Collect(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]int{1, 2, 3}))
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestFromSlice_Empty(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]int{}))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestFrom_Iterator(t *testing.T) {
	iter := &sliceIter[string]{items: []string{"a", "b"}}
	got, err := Collect(context.Background(), From[string](iter))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("got %v, want [a b]", got)
	}
}

func TestTap(t *testing.T) {
	var seen []int
	p := Tap(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) error {
		seen = append(seen, n)
		return nil
	})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) || !intSliceEqual(seen, []int{1, 2, 3}) {
		t.Errorf("got %v, seen %v", got, seen)
	}
}

func TestTap_Error(t *testing.T) {
	p := Tap(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) error {
		if n == 2 {
			return errors.New("tap failed")
		}
		return nil
	})
	got, err := Collect(context.Background(), p)
	if err == nil || err.Error() != "tap failed" {
		t.Fatalf("expected tap error, got %v", err)
	}
	if !intSliceEqual(got, []int{1}) {
		t.Errorf("expected [1] before error, got %v", got)
	}
}

func TestDrain(t *testing.T) {
	src := &closeTracker[string]{items: []string{"x", "y"}}
	var out []string
	err := Drain(From[string](src), func(_ context.Context, s string) error {
		out = append(out, s)
		return nil
	}).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(out, ",") != "x,y" {
		t.Errorf("got %v", out)
	}
	if !src.closed {
		t.Error("expected source to be closed")
	}
}

func TestDrain_SinkError(t *testing.T) {
	src := &closeTracker[string]{items: []string{"x", "y"}}
	sinkErr := errors.New("disk full")
	err := Drain(From[string](src), func(_ context.Context, s string) error {
		return sinkErr
	}).Run(context.Background())
	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if !src.closed {
		t.Error("expected source to be closed after sink error")
	}
}

func TestDrain_CloseError(t *testing.T) {
	closeErr := errors.New("close failed")
	src := &closeTracker[string]{closeErr: closeErr}
	err := Drain(From[string](src), func(context.Context, string) error { return nil }).Run(context.Background())
	if !errors.Is(err, closeErr) {
		t.Fatalf("expected close error, got %v", err)
	}
}

// --- helpers ---

type closeTracker[T any] struct {
	items    []T
	index    int
	closed   bool
	closeErr error
}

func (it *closeTracker[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	v := it.items[it.index]
	it.index++
	return v, true, nil
}

func (it *closeTracker[T]) Close() error {
	it.closed = true
	return it.closeErr
}

type failingIter struct {
	after int
	n     int
	err   error
}

func (it *failingIter) Next(_ context.Context) (int, bool, error) {
	if it.n >= it.after {
		return 0, false, it.err
	}
	it.n++
	return it.n, true, nil
}

func (it *failingIter) Close() error { return nil }

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func ExampleRun() {
	upper := Of(strings.ToUpper)
	out, err := Run(context.Background(), []string{"a", "b", "c"}, upper, 2)
	fmt.Println(out, err)
	// Output: [A B C] <nil>
}
