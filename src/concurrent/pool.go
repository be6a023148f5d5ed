// Package concurrent holds small helpers for bounded fan-out work.
package concurrent

import (
	"context"
	"sync"
)

// Settled runs fn over every item with at most maxConcurrency calls in
// flight and returns the successful results in input order. Failed calls
// are dropped; callers that care about individual errors should record
// them inside fn. This mirrors the "partial success is acceptable"
// semantics of the orchestration subtask stage.
func Settled[T, R any](ctx context.Context, items []T, maxConcurrency int, fn func(context.Context, T) (R, error)) []R {
	if len(items) == 0 {
		return nil
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}

	results := make([]*R, len(items))

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrency)

	for i, item := range items {
		wg.Add(1)
		go func(idx int, val T) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case sem <- struct{}{}:
				defer func() { <-sem }()
			}

			if r, err := fn(ctx, val); err == nil {
				results[idx] = &r
			}
		}(i, item)
	}

	wg.Wait()

	settled := make([]R, 0, len(items))
	for _, r := range results {
		if r != nil {
			settled = append(settled, *r)
		}
	}
	return settled
}
