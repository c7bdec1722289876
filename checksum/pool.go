package checksum

import (
	"context"
	"fmt"
	"sync"
)

// forEach calls fn for every index in [0, n) with at most
// parallelism calls in flight. Scheduling stops once ctx
// is done; errors are collected and the first is
// returned with the total count.
func forEach(
	ctx context.Context,
	n int,
	parallelism int,
	fn func(ctx context.Context, idx int) error,
) error {
	const errCtx = "running workers"

	if parallelism <= 0 {
		parallelism = 1
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	sem := make(chan struct{}, parallelism)

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			mu.Lock()
			errs = append(errs, ctx.Err())
			mu.Unlock()

			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := fn(ctx, idx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf(
			"%s: %d errors, first: %w",
			errCtx, len(errs), errs[0],
		)
	}

	return nil
}
