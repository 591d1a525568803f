package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/antarctica/lantern-go/pkg/gitlab"
)

const fixtureRecordJSON = `{
  "file_identifier": "5d5b4e21-fd32-409c-be83-ca1c339903e5",
  "hierarchy_level": "product",
  "metadata": {"contacts": [], "datestamp": "2024-01-01T00:00:00Z", "character_set": "utf8", "language": "eng", "metadata_standard": {"title": "ISO 19115-2:2009 - Geographic information - Metadata - Part 2: Extensions for imagery and gridded data"}},
  "identification": {
    "title": "x", "abstract": "x",
    "dates": [{"date_type": "creation", "date": "2014-06-30"}],
    "contacts": [{"organisation": "BAS", "role": ["pointOfContact"]}],
    "identifiers": [{"identifier": "5d5b4e21-fd32-409c-be83-ca1c339903e5", "href": "https://data.bas.ac.uk/items/5d5b4e21-fd32-409c-be83-ca1c339903e5", "namespace": "data.bas.ac.uk"}]
  }
}`

// newFakeGitLab stands up a minimal fixture server covering the read-path
// endpoints exercised by Cache.Create (spec.md sec 6).
func newFakeGitLab(t *testing.T, headCommit string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "/repository/tree"):
			if r.URL.Query().Get("page") != "" && r.URL.Query().Get("page") != "1" {
				json.NewEncoder(w).Encode([]gitlab.TreeEntry{})
				return
			}
			json.NewEncoder(w).Encode([]gitlab.TreeEntry{
				{Path: "records/5d/5b/5d5b4e21-fd32-409c-be83-ca1c339903e5.json", Type: "blob"},
			})
		case strings.Contains(r.URL.Path, "/repository/files/"):
			json.NewEncoder(w).Encode(map[string]any{
				"content":        base64.StdEncoding.EncodeToString([]byte(fixtureRecordJSON)),
				"last_commit_id": "commit-1",
			})
		case strings.Contains(r.URL.Path, "/repository/commits"):
			fmt.Fprintf(w, `[{"id": %q}]`, headCommit)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestCache(t *testing.T, server *httptest.Server, mode Mode) *Cache {
	t.Helper()
	client, err := gitlab.NewClient(gitlab.Config{
		Endpoint:  server.URL,
		Token:     "test-token",
		ProjectID: "42",
		Branch:    "main",
	}, hclog.NewNullLogger())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "cache")
	c, err := Open(dir, client, client.Source(), mode, 2, hclog.NewNullLogger())
	require.NoError(t, err)
	return c
}

func TestCacheCreateFromEmptyThenGet(t *testing.T) {
	server := newFakeGitLab(t, "commit-1")
	defer server.Close()
	c := newTestCache(t, server, ModeNormal)

	revs, err := c.Get(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	require.Equal(t, "5d5b4e21-fd32-409c-be83-ca1c339903e5", revs[0].FileIdentifier.String())
	require.Equal(t, "commit-1", revs[0].FileRevision)
	require.Equal(t, "commit-1", c.CachedHeadCommit())
}

func TestCachePurgeRemovesDirectory(t *testing.T) {
	server := newFakeGitLab(t, "commit-1")
	defer server.Close()
	c := newTestCache(t, server, ModeNormal)

	_, err := c.Get(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, c.Exists())

	require.NoError(t, c.Purge())
	require.NoDirExists(t, c.dir)
}

const fixtureRecordPath = "records/5d/5b/5d5b4e21-fd32-409c-be83-ca1c339903e5.json"

// newFakeGitLabRefresh extends newFakeGitLab's fixture with the
// commit-range/diff endpoints Refresh needs, and lets the test swap the
// served file body after the initial Create to simulate a content change
// that keeps the same file_identifier (spec.md sec 4.B, "Refresh
// (incremental)"). The served head commit and last_commit_id are
// "commit-1" until the body is swapped, and changedCommit after.
func newFakeGitLabRefresh(t *testing.T, body *[]byte, changedCommit string) *httptest.Server {
	t.Helper()
	initial := string(*body)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := "commit-1"
		if string(*body) != initial {
			current = changedCommit
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "/repository/tree"):
			if r.URL.Query().Get("page") != "" && r.URL.Query().Get("page") != "1" {
				json.NewEncoder(w).Encode([]gitlab.TreeEntry{})
				return
			}
			json.NewEncoder(w).Encode([]gitlab.TreeEntry{{Path: fixtureRecordPath, Type: "blob"}})
		case strings.Contains(r.URL.Path, fmt.Sprintf("/repository/commits/%s/diff", changedCommit)):
			json.NewEncoder(w).Encode([]gitlab.DiffEntry{{NewPath: fixtureRecordPath}})
		case strings.Contains(r.URL.Path, "/repository/commits") && strings.Contains(r.URL.RawQuery, ".."):
			if r.URL.Query().Get("page") != "" && r.URL.Query().Get("page") != "1" {
				json.NewEncoder(w).Encode([]gitlab.Commit{})
				return
			}
			json.NewEncoder(w).Encode([]gitlab.Commit{{ID: changedCommit}})
		case strings.Contains(r.URL.Path, "/repository/files/"):
			json.NewEncoder(w).Encode(map[string]any{
				"content":        base64.StdEncoding.EncodeToString(*body),
				"last_commit_id": current,
			})
		case strings.Contains(r.URL.Path, "/repository/commits"):
			fmt.Fprintf(w, `[{"id": %q}]`, current)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestCacheRefreshReplacesChangedRecord(t *testing.T) {
	body := []byte(fixtureRecordJSON)
	server := newFakeGitLabRefresh(t, &body, "commit-2")
	defer server.Close()
	c := newTestCache(t, server, ModeNormal)

	revs, err := c.Get(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	require.Equal(t, "commit-1", revs[0].FileRevision)

	body = []byte(strings.Replace(fixtureRecordJSON, `"title": "x", "abstract": "x"`, `"title": "y", "abstract": "y"`, 1))
	require.NoError(t, c.Refresh(context.Background(), "commit-2"))

	revs, err = c.Get(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, revs, 1, "the stale row must be replaced, not left alongside the new one")
	require.Equal(t, "commit-2", revs[0].FileRevision)
	require.Equal(t, "y", revs[0].Identification.Title)
	require.Equal(t, "commit-2", c.CachedHeadCommit())
}

func TestFrozenCacheRefusesPopulate(t *testing.T) {
	server := newFakeGitLab(t, "commit-1")
	defer server.Close()
	c := newTestCache(t, server, ModeFrozen)

	_, err := c.Get(context.Background(), nil)
	require.Error(t, err)
	var frozenErr *FrozenError
	require.ErrorAs(t, err, &frozenErr)
}
