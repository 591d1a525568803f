// Package gitlab implements the thin REST client over the remote Git
// forge's record-repository API (spec.md sec 6), grounded on the teacher's
// pkg/workspace/adapters HTTP-adapter and config/validate/defaults style
// (pkg/workspace/adapters/s3/adapter.go).
package gitlab

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Source identifies the repository, branch and host a record set is
// sourced from (spec.md sec 4.C, "GitLabSource").
type Source struct {
	Endpoint string
	Project  string
	Ref      string
}

func (s Source) String() string {
	return fmt.Sprintf("%s/%s@%s", s.Endpoint, s.Project, s.Ref)
}

// Equal reports whether s and o identify the same source.
func (s Source) Equal(o Source) bool {
	return s.Endpoint == o.Endpoint && s.Project == o.Project && s.Ref == o.Ref
}

// Config configures a Client.
type Config struct {
	Endpoint  string
	Token     string
	ProjectID string
	Branch    string
	Timeout   time.Duration
}

// SetDefaults fills unset optional fields.
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Branch == "" {
		c.Branch = "main"
	}
}

// Validate reports whether c has every field required to construct a Client.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("gitlab: endpoint is required")
	}
	if c.Token == "" {
		return fmt.Errorf("gitlab: token is required")
	}
	if c.ProjectID == "" {
		return fmt.Errorf("gitlab: project id is required")
	}
	return nil
}

// Client is a minimal GitLab repository-files/commits REST client.
type Client struct {
	cfg    Config
	http   *http.Client
	log    hclog.Logger
}

// NewClient validates cfg, applies defaults, and constructs a Client.
func NewClient(cfg Config, log hclog.Logger) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.Named("gitlab"),
	}, nil
}

// Source returns the (endpoint, project, ref) tuple this client was
// configured against.
func (c *Client) Source() Source {
	return Source{Endpoint: c.cfg.Endpoint, Project: c.cfg.ProjectID, Ref: c.cfg.Branch}
}

func (c *Client) apiURL(pathAndQuery string) string {
	return strings.TrimRight(c.cfg.Endpoint, "/") + "/api/v4/projects/" + url.PathEscape(c.cfg.ProjectID) + pathAndQuery
}

func (c *Client) do(ctx context.Context, method, rawURL string, body any) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("PRIVATE-TOKEN", c.cfg.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", rawURL, err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, fmt.Errorf("gitlab %s %s: status %d", method, rawURL, resp.StatusCode)
	}
	return resp, nil
}

// TreeEntry is one entry of a repository tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// ListRecordBlobs enumerates every `.json` blob under records/ on ref,
// paginating through the tree API (spec.md sec 6).
func (c *Client) ListRecordBlobs(ctx context.Context, ref string) ([]string, error) {
	var paths []string
	page := 1
	for {
		rawURL := c.apiURL(fmt.Sprintf("/repository/tree?path=records&ref=%s&recursive=true&per_page=100&page=%d",
			url.QueryEscape(ref), page))
		resp, err := c.do(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		var entries []TreeEntry
		err = json.NewDecoder(resp.Body).Decode(&entries)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding tree page %d: %w", page, err)
		}
		if len(entries) == 0 {
			break
		}
		for _, e := range entries {
			if e.Type == "blob" && strings.HasSuffix(e.Path, ".json") {
				paths = append(paths, e.Path)
			}
		}
		page++
	}
	return paths, nil
}

// File is a single repository file's contents and last-commit id.
type File struct {
	Content      []byte
	LastCommitID string
}

type fileResponse struct {
	Content      string `json:"content"`
	LastCommitID string `json:"last_commit_id"`
}

// GetFile fetches path's contents and last-commit-id on ref.
func (c *Client) GetFile(ctx context.Context, path, ref string) (File, error) {
	rawURL := c.apiURL(fmt.Sprintf("/repository/files/%s?ref=%s", url.PathEscape(path), url.QueryEscape(ref)))
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return File{}, err
	}
	defer resp.Body.Close()

	var fr fileResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return File{}, fmt.Errorf("decoding file %s: %w", path, err)
	}
	content, err := base64.StdEncoding.DecodeString(fr.Content)
	if err != nil {
		return File{}, fmt.Errorf("decoding file %s content: %w", path, err)
	}
	return File{Content: content, LastCommitID: fr.LastCommitID}, nil
}

// Commit is a single repository commit.
type Commit struct {
	ID string `json:"id"`
}

// HeadCommit returns the most recent commit on ref.
func (c *Client) HeadCommit(ctx context.Context, ref string) (string, error) {
	rawURL := c.apiURL(fmt.Sprintf("/repository/commits?ref_name=%s&per_page=1", url.QueryEscape(ref)))
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var commits []Commit
	if err := json.NewDecoder(resp.Body).Decode(&commits); err != nil {
		return "", fmt.Errorf("decoding head commit: %w", err)
	}
	if len(commits) == 0 {
		return "", fmt.Errorf("no commits found on ref %q", ref)
	}
	return commits[0].ID, nil
}

// CommitRange lists the commits in the range from..to (excluding from,
// including to), in the order the API returns them, used by the cache's
// incremental refresh.
func (c *Client) CommitRange(ctx context.Context, from, to string) ([]string, error) {
	var ids []string
	page := 1
	for {
		rawURL := c.apiURL(fmt.Sprintf("/repository/commits?ref_name=%s..%s&all=true&per_page=100&page=%d",
			url.QueryEscape(from), url.QueryEscape(to), page))
		resp, err := c.do(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		var commits []Commit
		err = json.NewDecoder(resp.Body).Decode(&commits)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding commit range page %d: %w", page, err)
		}
		if len(commits) == 0 {
			break
		}
		for _, commit := range commits {
			ids = append(ids, commit.ID)
		}
		page++
	}
	return ids, nil
}

// DiffEntry is one file change within a commit diff.
type DiffEntry struct {
	OldPath     string `json:"old_path"`
	NewPath     string `json:"new_path"`
	NewFile     bool   `json:"new_file"`
	RenamedFile bool   `json:"renamed_file"`
	DeletedFile bool   `json:"deleted_file"`
}

// CommitDiff returns the file-level diff for the given commit sha.
func (c *Client) CommitDiff(ctx context.Context, sha string) ([]DiffEntry, error) {
	var entries []DiffEntry
	page := 1
	for {
		rawURL := c.apiURL(fmt.Sprintf("/repository/commits/%s/diff?per_page=100&page=%d", url.PathEscape(sha), page))
		resp, err := c.do(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		var batch []DiffEntry
		err = json.NewDecoder(resp.Body).Decode(&batch)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding commit %s diff page %d: %w", sha, page, err)
		}
		if len(batch) == 0 {
			break
		}
		entries = append(entries, batch...)
		page++
	}
	return entries, nil
}

// BranchExists reports whether ref already exists as a branch.
func (c *Client) BranchExists(ctx context.Context, ref string) (bool, error) {
	rawURL := c.apiURL("/repository/branches/" + url.PathEscape(ref))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("PRIVATE-TOKEN", c.cfg.Token)
	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("checking branch %q: %w", ref, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode >= 400 {
		return false, fmt.Errorf("checking branch %q: status %d", ref, resp.StatusCode)
	}
	return true, nil
}

// CreateBranch creates ref, forking from source (spec.md sec 9, "Branch
// creation always forks from main").
func (c *Client) CreateBranch(ctx context.Context, ref, source string) error {
	rawURL := c.apiURL(fmt.Sprintf("/repository/branches?branch=%s&ref=%s", url.QueryEscape(ref), url.QueryEscape(source)))
	resp, err := c.do(ctx, http.MethodPost, rawURL, nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// CommitAction is one file mutation within a CommitBatch request.
type CommitAction struct {
	Action   string `json:"action"` // "create" | "update"
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

// CommitBatchRequest is the body of a create-commit call.
type CommitBatchRequest struct {
	Branch        string         `json:"branch"`
	CommitMessage string         `json:"commit_message"`
	AuthorName    string         `json:"author_name"`
	AuthorEmail   string         `json:"author_email"`
	Actions       []CommitAction `json:"actions"`
}

// CommitBatch issues the actions as a single atomic commit and returns the
// new commit's sha.
func (c *Client) CommitBatch(ctx context.Context, req CommitBatchRequest) (string, error) {
	rawURL := c.apiURL("/repository/commits")
	resp, err := c.do(ctx, http.MethodPost, rawURL, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var commit Commit
	if err := json.NewDecoder(resp.Body).Decode(&commit); err != nil {
		return "", fmt.Errorf("decoding commit response: %w", err)
	}
	return commit.ID, nil
}

// MergeRequest is one open changeset returned by FindOpenMergeRequest.
type MergeRequest struct {
	IID   int    `json:"iid"`
	Title string `json:"title"`
}

// FindOpenMergeRequest reports whether an open merge request already
// exists for sourceBranch, so Push's merge-request step stays idempotent
// across retries the way ensureBranch's GET-then-POST does for branches
// (spec.md sec 6, "GET/POST /projects/:id/merge_requests").
func (c *Client) FindOpenMergeRequest(ctx context.Context, sourceBranch string) (bool, error) {
	rawURL := c.apiURL(fmt.Sprintf("/merge_requests?state=opened&source_branch=%s", url.QueryEscape(sourceBranch)))
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var mrs []MergeRequest
	if err := json.NewDecoder(resp.Body).Decode(&mrs); err != nil {
		return false, fmt.Errorf("decoding open merge requests for %q: %w", sourceBranch, err)
	}
	return len(mrs) > 0, nil
}

// OpenMergeRequest opens a changeset tying commits together (spec.md sec 6).
func (c *Client) OpenMergeRequest(ctx context.Context, sourceBranch, targetBranch, title string) error {
	rawURL := c.apiURL(fmt.Sprintf("/merge_requests?source_branch=%s&target_branch=%s&title=%s",
		url.QueryEscape(sourceBranch), url.QueryEscape(targetBranch), url.QueryEscape(title)))
	resp, err := c.do(ctx, http.MethodPost, rawURL, nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
