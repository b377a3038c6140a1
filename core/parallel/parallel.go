// Package parallel spreads independent work items over the available CPUs.
package parallel

import (
	"runtime"
	"sync"
)

// Range splits [0, items) into contiguous chunks, one per CPU, and calls
// fn(start, end) for each chunk concurrently. It returns when every chunk
// is done.
func Range(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	numWorkers := min(runtime.NumCPU(), items)
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunkSize {
		end := min(start+chunkSize, items)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// Each calls fn(i) for every i in [0, items). Below threshold items the
// calls run sequentially on the caller's goroutine.
func Each(items, threshold int, fn func(i int)) {
	if items <= threshold {
		for i := 0; i < items; i++ {
			fn(i)
		}
		return
	}
	Range(items, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}
