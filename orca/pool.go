package orca

import (
	"runtime"
	"sync"
)

// parallelFor runs fn(i) for every i in [0, n) using up to workers
// goroutines, one contiguous chunk of indices per goroutine. It blocks
// until every index has been processed.
//
// This realizes phase 2's data-parallel fan-out (spec §4.6, §5): each
// worker only ever reads shared agent state and the (immutable for the
// duration of the step) k-d tree, and writes exclusively to the scratch
// state of the agents in its own chunk.
func parallelFor(n, workers int, fn func(i int)) {
	if n == 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
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
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}
