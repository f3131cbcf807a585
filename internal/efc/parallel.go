package efc

import (
	"runtime"
	"sync"
)

// parallelMinChunk is the smallest slice of radii worth a goroutine.
const parallelMinChunk = 4096

// parallelFor runs fn over [0, n) split into contiguous chunks. Chunks are
// disjoint, so fn may write index-addressed output without locking.
func parallelFor(n, minChunk int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
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
