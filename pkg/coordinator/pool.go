package coordinator

import (
	"context"
	"runtime"
	"sync"
)

// workerCount returns the bounded worker-pool size used for CPU- and
// I/O-fan-out across a stage (§5): min(4, runtime.NumCPU()).
func workerCount() int {
	n := runtime.NumCPU()
	if n > 4 {
		return 4
	}
	if n < 1 {
		return 1
	}
	return n
}

// mapConcurrent runs fn over items on a bounded pool of goroutines, grounded
// on the teacher's registry/manager.go and toolregistry/provider worker-pool
// shape (a fixed goroutine count draining a work channel, joined by a
// sync.WaitGroup) generalized from a single streaming consumer to a
// generic per-stage fan-out. Results preserve the input order; a single
// item's error does not cancel the others — all results are returned
// alongside a slice of per-index errors so the stage can decide whether
// partial output still counts as success (§4.6 step 3's "tolerated if at
// least one topic produced output").
func mapConcurrent[T any, R any](ctx context.Context, items []T, fn func(ctx context.Context, item T) (R, error)) ([]R, []error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))

	work := make(chan int, len(items))
	for i := range items {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	n := workerCount()
	if n > len(items) {
		n = len(items)
	}
	if n == 0 {
		return results, errs
	}

	wg.Add(n)
	for w := 0; w < n; w++ {
		go func() {
			defer wg.Done()
			for i := range work {
				select {
				case <-ctx.Done():
					errs[i] = ctx.Err()
					continue
				default:
				}
				r, err := fn(ctx, items[i])
				results[i] = r
				errs[i] = err
			}
		}()
	}
	wg.Wait()
	return results, errs
}
