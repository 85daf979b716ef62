package batch

import (
	"context"
	"sync"
)

// Task is a unit of work executed as part of a batch.
type Task func(ctx context.Context) error

// Result captures the outcome of a single settled task.
type Result struct {
	Index int
	Err   error
}

// SettleAll runs every task concurrently and waits for all of them to finish,
// collecting per-task outcomes. It never returns an error itself: callers on
// read paths inspect the results and substitute defaults for failed tasks.
func SettleAll(ctx context.Context, tasks ...Task) []Result {
	results := make([]Result, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			results[i] = Result{Index: i, Err: task(ctx)}
		}(i, task)
	}
	wg.Wait()

	return results
}

// Failed filters settled results down to the ones that errored.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// RunAll runs every task concurrently and waits for all of them to finish.
// Unlike SettleAll it reports failure: the first error (by task order) is
// returned and the batch as a whole counts as failed. All tasks still run to
// completion; there is no cancellation of in-flight siblings.
func RunAll(ctx context.Context, tasks ...Task) error {
	for _, r := range SettleAll(ctx, tasks...) {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
