// Package square implements the region-based squaring pipeline: per
// region, the union of called positions is computed, every sample is
// brought to an explicit call at every union position, and the per-sample
// results are merged back into one multi-sample call set.
package square

import (
	"sync"
)

// task is one unit of bounded fan-out work, numbered so results can be
// consumed in submission order regardless of completion order.
type task[T any] struct {
	Seq int
	Val T
}

// taskResult carries one task's outcome.
type taskResult[T, R any] struct {
	Seq int
	Val T
	Out R
	Err error
}

// runBounded fans items out over a pool of workers. Results are sent to
// the returned channel in arrival order (not sequence order); use
// orderedCollect to consume them in sequence order. workers is clamped to
// at least 1.
func runBounded[T, R any](items []T, workers int, fn func(T) (R, error)) <-chan taskResult[T, R] {
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) && len(items) > 0 {
		workers = len(items)
	}

	in := make(chan task[T], len(items))
	for i, v := range items {
		in <- task[T]{Seq: i, Val: v}
	}
	close(in)

	results := make(chan taskResult[T, R], 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for t := range in {
				out, err := fn(t.Val)
				results <- taskResult[T, R]{Seq: t.Seq, Val: t.Val, Out: out, Err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// orderedCollect calls fn for each result in sequence order, buffering
// out-of-order results in a pending map. It blocks until the results
// channel is closed. On the first error from fn the remaining results are
// drained to unblock workers.
func orderedCollect[T, R any](results <-chan taskResult[T, R], fn func(taskResult[T, R]) error) error {
	pending := make(map[int]taskResult[T, R])
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
