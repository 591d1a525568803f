package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// smallTimeout and fileTimeout are the two fixed per-job timeouts
// (spec.md sec 5, "10 s for small JSON APIs, 30 s for file probes").
const (
	smallTimeout = 10 * time.Second
	fileTimeout  = 30 * time.Second
)

func timeoutFor(j *Job) time.Duration {
	switch j.CheckFunc {
	case CheckURL, CheckItemDownload:
		if j.Type == JobTypeDistribution {
			return fileTimeout
		}
	}
	return smallTimeout
}

// runCheck dispatches j to its named check function and mutates j.Result
// and j.Data in place (spec.md sec 4.F).
func runCheck(ctx context.Context, client *http.Client, j *Job) {
	ctx, cancel := context.WithTimeout(ctx, timeoutFor(j))
	defer cancel()

	switch j.CheckFunc {
	case CheckURL:
		checkURL(ctx, client, j)
	case CheckURLRedirect:
		checkURLRedirect(ctx, client, j)
	case CheckURLArcGIS:
		checkURLArcGIS(ctx, client, j)
	case CheckItemDownload:
		checkItemDownload(ctx, client, j)
	default:
		j.Result = ResultFail
		j.Data["error"] = fmt.Sprintf("unknown check function %q", j.CheckFunc)
	}
}

func newRequest(ctx context.Context, j *Job) (*http.Request, error) {
	method := j.Method
	if method == "" {
		method = http.MethodHead
	}
	var body io.Reader
	if j.JSONBody != nil {
		b, err := json.Marshal(j.JSONBody)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, j.URL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range j.Headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// checkURL performs a HEAD (by default) to job.URL; pass iff status ==
// ExpectedStatus AND (if ExpectedLength set and status != 206)
// content-length equals ExpectedLength (spec.md sec 4.F).
func checkURL(ctx context.Context, client *http.Client, j *Job) {
	req, err := newRequest(ctx, j)
	if err != nil {
		fail(j, err)
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		fail(j, err)
		return
	}
	defer resp.Body.Close()

	j.Data["status"] = resp.StatusCode
	if resp.StatusCode != j.ExpectedStatus {
		j.Result = ResultFail
		return
	}
	if j.ExpectedLength != nil && resp.StatusCode != http.StatusPartialContent {
		cl, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
		if err != nil || cl != *j.ExpectedLength {
			j.Result = ResultFail
			return
		}
	}
	j.Result = ResultPass
}

// checkURLRedirect expects status 301 and Location == Target, then GETs
// Target with redirects followed and expects 200 (spec.md sec 4.F).
func checkURLRedirect(ctx context.Context, client *http.Client, j *Job) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, j.URL, nil)
	if err != nil {
		fail(j, err)
		return
	}
	noRedirect := *client
	noRedirect.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err := noRedirect.Do(req)
	if err != nil {
		fail(j, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMovedPermanently || resp.Header.Get("Location") != j.Target {
		j.Result = ResultFail
		j.Data["status_code"] = resp.StatusCode
		j.Data["location"] = resp.Header.Get("Location")
		return
	}

	follow, err := http.NewRequestWithContext(ctx, http.MethodGet, j.Target, nil)
	if err != nil {
		fail(j, err)
		return
	}
	followResp, err := client.Do(follow)
	if err != nil {
		fail(j, err)
		return
	}
	defer followResp.Body.Close()
	j.Data["target_status"] = followResp.StatusCode
	if followResp.StatusCode != http.StatusOK {
		j.Result = ResultFail
		return
	}
	j.Result = ResultPass
}

// checkURLArcGIS GETs job.URL, parses JSON, and passes iff there is no
// top-level "error" key (spec.md sec 4.F).
func checkURLArcGIS(ctx context.Context, client *http.Client, j *Job) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.URL, nil)
	if err != nil {
		fail(j, err)
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		fail(j, err)
		return
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		fail(j, fmt.Errorf("decoding arcgis response: %w", err))
		return
	}
	if _, hasError := body["error"]; hasError {
		j.Result = ResultFail
		j.Data["arcgis_error"] = body["error"]
		return
	}
	j.Result = ResultPass
}

// checkItemDownload GETs the context URL (an item page) and passes iff
// the job's original URL, with & escaped to &amp;, appears literally in
// the response body (spec.md sec 4.F).
func checkItemDownload(ctx context.Context, client *http.Client, j *Job) {
	itemURL := j.Context["URL"]
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, itemURL, nil)
	if err != nil {
		fail(j, err)
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		fail(j, err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fail(j, err)
		return
	}
	needle := strings.ReplaceAll(j.URL, "&", "&amp;")
	if !bytes.Contains(body, []byte(needle)) {
		j.Result = ResultFail
		return
	}
	j.Result = ResultPass
}

func fail(j *Job, err error) {
	j.Result = ResultFail
	j.Data["error"] = err.Error()
}
