package verify

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileOverallPassRequiresEveryJobToPass(t *testing.T) {
	jobs := []*Job{
		{Type: JobTypeSitePage, Result: ResultPass, Data: map[string]any{}},
		{Type: JobTypeRecordFormat, Result: ResultPass, Data: map[string]any{}},
	}
	r := Compile(jobs)
	require.True(t, r.Pass)
}

func TestCompileSkipIsNotAPass(t *testing.T) {
	jobs := []*Job{
		{Type: JobTypeSitePage, Result: ResultPass, Data: map[string]any{}},
		{Type: JobTypeRecordFormat, Result: ResultSkip, Data: map[string]any{}},
	}
	r := Compile(jobs)
	require.False(t, r.Pass)
	require.Equal(t, 0, r.Resource.PassCount)
	require.Equal(t, 1, r.Resource.TotalCount)
}

func TestCompileSeparatesSiteAndResourceGroups(t *testing.T) {
	jobs := []*Job{
		{Type: JobTypeSitePage, Result: ResultPass, Data: map[string]any{}},
		{Type: JobTypeItemPage, Result: ResultFail, Data: map[string]any{}},
	}
	r := Compile(jobs)
	require.Equal(t, 1, r.Site.TotalCount)
	require.Equal(t, 1, r.Resource.TotalCount)
	require.False(t, r.Pass)
}

type stubReportRenderer struct{}

func (stubReportRenderer) Render(name string, data any) ([]byte, error) {
	return []byte("<html>" + name + "</html>"), nil
}

func TestWriteProducesJSONAndHTML(t *testing.T) {
	jobs := []*Job{{Type: JobTypeSitePage, URL: "https://example.com", Result: ResultPass, Data: map[string]any{}}}
	r := Compile(jobs)

	dir := t.TempDir()
	require.NoError(t, Write(context.Background(), r, dir, stubReportRenderer{}))

	data, err := os.ReadFile(filepath.Join(dir, reportDir, "data.json"))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, true, decoded["pass"])

	html, err := os.ReadFile(filepath.Join(dir, reportDir, "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(html), "verification.html.j2")
}
