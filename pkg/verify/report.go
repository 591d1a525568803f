package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// reportDir is the fixed site-relative output location for the
// verification report (spec.md sec 6, "-/verification/{data.json,index.html}").
const reportDir = "-/verification"

// Group is one bucket of the report — "site" or "resource" — with its
// own pass/fail roll-up (spec.md sec 4.F, "aggregates jobs by site vs
// per-resource").
type Group struct {
	Jobs         []*Job
	PassCount    int
	TotalCount   int
	TotalElapsed time.Duration
}

// Report is the compiled verification run (spec.md sec 4.F).
type Report struct {
	Site     Group
	Resource Group
	Pass     bool
}

func newGroup() Group { return Group{} }

func (g *Group) add(j *Job) {
	g.Jobs = append(g.Jobs, j)
	g.TotalCount++
	if j.Result == ResultPass {
		g.PassCount++
	}
	if d, ok := j.Data["duration"].(time.Duration); ok {
		g.TotalElapsed += d
	}
}

// Compile aggregates jobs into a Report. Overall pass is (pass count ==
// total) across every job, matching spec.md sec 4.F literally: a
// cancelled-to-skip job is not a pass.
func Compile(jobs []*Job) Report {
	var r Report
	r.Site = newGroup()
	r.Resource = newGroup()

	for _, j := range jobs {
		if j.Type == JobTypeSitePage {
			r.Site.add(j)
		} else {
			r.Resource.add(j)
		}
	}

	r.Pass = (r.Site.PassCount == r.Site.TotalCount) && (r.Resource.PassCount == r.Resource.TotalCount)
	return r
}

// reportJSON is the wire shape written to data.json.
type reportJSON struct {
	Pass     bool       `json:"pass"`
	Site     groupJSON  `json:"site"`
	Resource groupJSON  `json:"resource"`
}

type groupJSON struct {
	Pass          int           `json:"pass_count"`
	Total         int           `json:"total_count"`
	TotalDuration time.Duration `json:"total_duration_ns"`
	Jobs          []jobJSON     `json:"jobs"`
}

type jobJSON struct {
	Type   JobType        `json:"type"`
	URL    string         `json:"url"`
	Result Result         `json:"result"`
	Data   map[string]any `json:"data"`
}

func toJSON(r Report) reportJSON {
	return reportJSON{
		Pass:     r.Pass,
		Site:     groupToJSON(r.Site),
		Resource: groupToJSON(r.Resource),
	}
}

func groupToJSON(g Group) groupJSON {
	out := groupJSON{Pass: g.PassCount, Total: g.TotalCount, TotalDuration: g.TotalElapsed}
	for _, j := range g.Jobs {
		out.Jobs = append(out.Jobs, jobJSON{Type: j.Type, URL: j.URL, Result: j.Result, Data: j.Data})
	}
	return out
}

// Renderer is the subset of export.TemplateRenderer report writing needs.
type Renderer interface {
	Render(name string, data any) ([]byte, error)
}

// Write serialises r to rootDir/-/verification/data.json and, via
// renderer, index.html (spec.md sec 4.F).
func Write(ctx context.Context, r Report, rootDir string, renderer Renderer) error {
	dir := filepath.Join(rootDir, reportDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("verify: creating report dir: %w", err)
	}

	data, err := json.MarshalIndent(toJSON(r), "", "  ")
	if err != nil {
		return fmt.Errorf("verify: encoding report json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "data.json"), data, 0o644); err != nil {
		return fmt.Errorf("verify: writing data.json: %w", err)
	}

	html, err := renderer.Render("_views/verification.html.j2", r)
	if err != nil {
		return fmt.Errorf("verify: rendering index.html: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.html"), html, 0o644); err != nil {
		return fmt.Errorf("verify: writing index.html: %w", err)
	}
	return nil
}
