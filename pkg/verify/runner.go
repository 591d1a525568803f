package verify

import (
	"context"
	"net/http"
	"time"

	"github.com/antarctica/lantern-go/pkg/export/workerpool"
)

// Run executes every job in jobs across workers goroutines, sharing one
// *http.Client (spec.md sec 5, "the remote HTTP client is safe to share
// read-only across workers"). Jobs whose result is already non-pending
// are no-ops, matching spec.md sec 4.F's `run_job` contract; ctx
// cancellation short-circuits remaining jobs into skip.
func Run(ctx context.Context, jobs []*Job, workers int, client *http.Client) []*Job {
	if client == nil {
		client = &http.Client{}
	}
	results, _ := workerpool.RunCollect(ctx, jobs, workers, func(ctx context.Context, j *Job) (*Job, error) {
		if ctx.Err() != nil {
			j.Result = ResultSkip
			return j, nil
		}
		if j.Result != ResultPending {
			return j, nil
		}
		start := time.Now()
		runCheck(ctx, client, j)
		j.recordDuration(start)
		return j, nil
	})
	// workerpool.Run never invokes fn for items it never dispatches (ctx
	// already cancelled at that point in the fan-out), leaving a nil
	// result slot; recover the original job and mark it skipped rather
	// than surface a nil *Job to callers.
	for i, r := range results {
		if r == nil {
			jobs[i].Result = ResultSkip
			results[i] = jobs[i]
		}
	}
	return results
}
