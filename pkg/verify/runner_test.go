package verify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunExecutesPendingJobs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	jobs := []*Job{NewJob(JobTypeSitePage, srv.URL, CheckURL, nil)}
	results := Run(context.Background(), jobs, 2, srv.Client())
	require.Len(t, results, 1)
	require.Equal(t, ResultPass, results[0].Result)
}

func TestRunSkipsNonPendingJobs(t *testing.T) {
	j := NewJob(JobTypeSitePage, "http://unused.invalid", CheckURL, nil)
	j.Result = ResultFail

	results := Run(context.Background(), []*Job{j}, 1, nil)
	require.Equal(t, ResultFail, results[0].Result, "already-resolved job must not be re-run")
}

func TestRunMarksCancelledJobsSkip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	j := NewJob(JobTypeSitePage, "http://unused.invalid", CheckURL, nil)
	results := Run(ctx, []*Job{j}, 1, nil)
	require.Equal(t, ResultSkip, results[0].Result)
}
