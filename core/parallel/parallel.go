// Package parallel provides chunked range parallelization helpers.
//
// The helpers split an index range [0, n) into contiguous chunks and run a
// worker function per chunk. Callers are responsible for ensuring workers
// only write to disjoint, index-addressed output (e.g. one slot per index in
// a pre-allocated slice); under that discipline results are identical to a
// sequential loop regardless of scheduling.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize runs fn over [0, n) split into up to GOMAXPROCS contiguous
// chunks. fn receives half-open [start, end) bounds and is called
// concurrently; Parallelize returns after all chunks complete.
func Parallelize(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn over [0, n), sequentially when n is below
// threshold and in parallel chunks otherwise. Small ranges are not worth the
// goroutine overhead.
func ParallelizeWithThreshold(n, threshold int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if n < threshold {
		fn(0, n)
		return
	}
	Parallelize(n, fn)
}
