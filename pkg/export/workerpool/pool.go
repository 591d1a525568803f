// Package workerpool implements the fixed-N worker pool shared by the
// exporter coordinator and the verification runner (spec.md sec 5, sec 9
// "replace the delayed/Parallel idiom with a worker-pool abstraction"),
// generalized from the teacher's generic pkg/indexer.ParallelProcess
// helper into a standalone, reusable primitive.
package workerpool

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Run executes fn once per item in items, fanning out across at most
// workers concurrent goroutines. workers <= 1 collapses to strictly
// serial execution in item order (spec.md sec 5, "parallel_jobs = 1 must
// disable parallelism entirely"). It returns the aggregated errors of all
// failing calls; a nil return means every item succeeded.
//
// ctx cancellation stops dispatching new items; items already dispatched
// still run to completion, matching the cooperative-cancellation contract
// described for the verification runner in spec.md sec 4.F.
func Run[T any](ctx context.Context, items []T, workers int, fn func(context.Context, T) error) error {
	if workers < 1 {
		workers = 1
	}
	if len(items) == 0 {
		return nil
	}
	if workers == 1 {
		var errs *multierror.Error
		for _, item := range items {
			if ctx.Err() != nil {
				break
			}
			if err := fn(ctx, item); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		return errs.ErrorOrNil()
	}

	work := make(chan T, len(items))
	for _, item := range items {
		work <- item
	}
	close(work)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs *multierror.Error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				if ctx.Err() != nil {
					continue
				}
				if err := fn(ctx, item); err != nil {
					mu.Lock()
					errs = multierror.Append(errs, err)
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	return errs.ErrorOrNil()
}

// RunCollect is Run's counterpart for functions producing a per-item
// result alongside a possible error (used by the verification runner,
// which must return every mutated Job regardless of pass/fail).
func RunCollect[T, R any](ctx context.Context, items []T, workers int, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	indexed := make([]int, len(items))
	for i := range items {
		indexed[i] = i
	}
	err := Run(ctx, indexed, workers, func(ctx context.Context, i int) error {
		r, err := fn(ctx, items[i])
		results[i] = r
		return err
	})
	return results, err
}
