// Package verify implements the post-publish HTTP verification engine:
// a plan generator, a parallel job runner sharing pkg/export/workerpool,
// and a report compiler (spec.md sec 4.F).
package verify

import "time"

// JobType classifies what a Job is checking, used only for report
// grouping (spec.md sec 4.F, "aggregates jobs by site vs per-resource").
type JobType string

const (
	JobTypeSitePage        JobType = "site_page"
	JobTypeRecordFormat    JobType = "record_format"
	JobTypeItemPage        JobType = "item_page"
	JobTypeAliasRedirect   JobType = "alias_redirect"
	JobTypeDOIRedirect     JobType = "doi_redirect"
	JobTypeDistribution    JobType = "distribution"
	JobTypeItemDownload    JobType = "item_download"
)

// Result is a Job's outcome (spec.md sec 4.F).
type Result string

const (
	ResultPending Result = "pending"
	ResultPass    Result = "pass"
	ResultFail    Result = "fail"
	ResultSkip    Result = "skip"
)

// CheckFunc names which check function dispatches a Job (spec.md sec 4.F).
type CheckFunc string

const (
	CheckURL          CheckFunc = "check_url"
	CheckURLRedirect  CheckFunc = "check_url_redirect"
	CheckURLArcGIS    CheckFunc = "check_url_arcgis"
	CheckItemDownload CheckFunc = "check_item_download"
)

// Job is a single declarative HTTP probe (spec.md sec 4.F, sec 9
// "Verification job": inputs + expected-outcome contract + result slot).
type Job struct {
	Type      JobType
	URL       string
	Context   map[string]string // BASE_URL, SHAREPOINT_PROXY_ENDPOINT, SAN_PROXY_ENDPOINT
	Data      map[string]any    // result metadata (duration, observed status, etc.)
	Result    Result

	Method         string // default HEAD for check_url
	Headers        map[string]string
	JSONBody       any
	ExpectedStatus int // default 200
	ExpectedLength *int64
	CheckFunc      CheckFunc
	Target         string // redirect target for check_url_redirect
}

// NewJob returns a Job in its pending state with the given check function
// and per-job context, and a sensible default expected status.
func NewJob(typ JobType, url string, check CheckFunc, ctxMap map[string]string) *Job {
	return &Job{
		Type:           typ,
		URL:            url,
		Context:        ctxMap,
		Data:           map[string]any{},
		Result:         ResultPending,
		ExpectedStatus: 200,
		CheckFunc:      check,
	}
}

func (j *Job) recordDuration(start time.Time) {
	j.Data["duration"] = time.Since(start)
}
