package parallel

import (
	"sync/atomic"
	"testing"
)

func TestParallelize_CoversRangeExactlyOnce(t *testing.T) {
	for _, n := range []int{1, 2, 7, 100, 10000} {
		hits := make([]int32, n)
		Parallelize(n, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}

func TestParallelize_EmptyRange(t *testing.T) {
	called := false
	Parallelize(0, func(start, end int) { called = true })
	if called {
		t.Error("worker called for empty range")
	}
	Parallelize(-3, func(start, end int) { called = true })
	if called {
		t.Error("worker called for negative range")
	}
}

func TestParallelizeWithThreshold_SequentialBelowThreshold(t *testing.T) {
	var calls int
	ParallelizeWithThreshold(5, 10, func(start, end int) {
		calls++
		if start != 0 || end != 5 {
			t.Errorf("bounds = [%d, %d), want [0, 5)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("calls = %d, want exactly one sequential chunk", calls)
	}
}

func TestParallelizeWithThreshold_ParallelAtThreshold(t *testing.T) {
	n := 64
	hits := make([]int32, n)
	ParallelizeWithThreshold(n, 8, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times", i, h)
		}
	}
}
