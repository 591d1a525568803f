// Package store implements the record store facade: remote Git-forge
// branch lifecycle, push-diff classification, and the read path backed by
// pkg/cache (spec.md sec 4.C). New domain logic is written in the
// teacher's error-wrapping idiom (fmt.Errorf("...: %w", err)) seen
// throughout pkg/migration/manager.go.
package store

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/antarctica/lantern-go/pkg/cache"
	"github.com/antarctica/lantern-go/pkg/gitlab"
	"github.com/antarctica/lantern-go/pkg/record"
)

const (
	defaultAuthorName  = "lantern-publishing-bot"
	defaultAuthorEmail = "lantern-publishing-bot@bas.ac.uk"
	mainBranch         = "main"
)

// CommitResults reports the outcome of a Push.
type CommitResults struct {
	Commit             string
	NewIdentifiers     []record.ID
	UpdatedIdentifiers []record.ID
}

// Store is the facade over one GitLab-hosted record set: a remote client,
// its local cache, and the push/select/branch-lifecycle operations layered
// on top (spec.md sec 4.C).
type Store struct {
	remote *gitlab.Client
	cache  *cache.Cache
	frozen bool
	log    hclog.Logger
}

// New constructs a Store over an already-open cache.
func New(remote *gitlab.Client, c *cache.Cache, frozen bool, log hclog.Logger) *Store {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Store{remote: remote, cache: c, frozen: frozen, log: log.Named("store")}
}

// Frozen reports whether this Store instance refuses mutation — frozen
// Store instances are shared read-only across exporter workers so every
// worker observes the same snapshot (spec.md sec 5, sec 9).
func (s *Store) Frozen() bool { return s.frozen }

// Select returns every requested RecordRevision, or NotFoundSetError
// naming every missing id — an all-or-nothing read (spec.md sec 4.C).
func (s *Store) Select(ctx context.Context, ids []record.ID) ([]record.RecordRevision, error) {
	revs, err := s.cache.Get(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("selecting records: %w", err)
	}
	if ids == nil {
		return revs, nil
	}

	have := make(map[string]bool, len(revs))
	for _, rev := range revs {
		have[rev.FileIdentifier.String()] = true
	}
	var missing []record.ID
	for _, id := range ids {
		if !have[id.String()] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &NotFoundSetError{Missing: missing}
	}
	return revs, nil
}

// SelectOne returns one RecordRevision, or NotFoundError if absent
// (spec.md sec 4.C).
func (s *Store) SelectOne(ctx context.Context, id record.ID) (record.RecordRevision, error) {
	revs, err := s.cache.Get(ctx, []record.ID{id})
	if err != nil {
		return record.RecordRevision{}, fmt.Errorf("selecting record %s: %w", id, err)
	}
	if len(revs) == 0 {
		return record.RecordRevision{}, &NotFoundError{ID: id}
	}
	return revs[0], nil
}

// Push classifies each record as skip/update/new against the cache,
// issues a single atomic remote commit for the changed set, and refreshes
// the cache on success (spec.md sec 4.C "Branch lifecycle (write path)").
func (s *Store) Push(ctx context.Context, ref string, records []record.Record) (CommitResults, error) {
	if s.frozen {
		return CommitResults{}, &FrozenError{Op: "push"}
	}

	if err := s.ensureBranch(ctx, ref); err != nil {
		return CommitResults{}, err
	}
	if err := s.cache.EnsureFresh(ctx); err != nil {
		return CommitResults{}, fmt.Errorf("refreshing cache before push: %w", err)
	}

	ids := make([]record.ID, len(records))
	for i, r := range records {
		ids[i] = r.FileIdentifier
	}
	cachedHashes, err := s.cache.GetHashes(ids)
	if err != nil {
		return CommitResults{}, fmt.Errorf("loading cached hashes: %w", err)
	}

	var actions []gitlab.CommitAction
	var results CommitResults
	for _, r := range records {
		hash, err := r.SHA1()
		if err != nil {
			return CommitResults{}, fmt.Errorf("hashing record %s: %w", r.FileIdentifier, err)
		}
		cachedHash, known := cachedHashes[r.FileIdentifier.String()]
		switch {
		case known && cachedHash == hash:
			continue // skip: unchanged
		case known:
			results.UpdatedIdentifiers = append(results.UpdatedIdentifiers, r.FileIdentifier)
		default:
			results.NewIdentifiers = append(results.NewIdentifiers, r.FileIdentifier)
		}

		body, err := r.DumpsJSON(false) // admin metadata preserved (spec.md sec 4.C step 4)
		if err != nil {
			return CommitResults{}, fmt.Errorf("encoding record %s: %w", r.FileIdentifier, err)
		}
		action := "update"
		if !known {
			action = "create"
		}
		actions = append(actions, gitlab.CommitAction{
			Action:   action,
			FilePath: recordPath(r.FileIdentifier.String()),
			Content:  string(body),
		})
	}

	if len(actions) == 0 {
		return CommitResults{}, nil
	}

	commit, err := s.remote.CommitBatch(ctx, gitlab.CommitBatchRequest{
		Branch:        ref,
		CommitMessage: fmt.Sprintf("Automated publishing changeset: %d record(s)", len(actions)),
		AuthorName:    defaultAuthorName,
		AuthorEmail:   defaultAuthorEmail,
		Actions:       actions,
	})
	if err != nil {
		return CommitResults{}, fmt.Errorf("committing %d record(s): %w", len(actions), err)
	}
	results.Commit = commit

	if ref != mainBranch {
		if err := s.ensureMergeRequest(ctx, ref); err != nil {
			return CommitResults{}, err
		}
	}

	remoteHead, err := s.remote.HeadCommit(ctx, ref)
	if err != nil {
		return CommitResults{}, fmt.Errorf("re-checking head after push: %w", err)
	}
	if err := s.cache.Refresh(ctx, remoteHead); err != nil {
		return CommitResults{}, fmt.Errorf("refreshing cache after push: %w", err)
	}

	s.log.Info("pushed record changeset", "commit", commit, "new", len(results.NewIdentifiers), "updated", len(results.UpdatedIdentifiers))
	return results, nil
}

// ensureMergeRequest opens the changeset merge request tying ref's commits
// back to main, if one isn't already open (spec.md sec 6, "GET/POST
// /projects/:id/merge_requests"). Idempotent across retried pushes to the
// same branch.
func (s *Store) ensureMergeRequest(ctx context.Context, ref string) error {
	open, err := s.remote.FindOpenMergeRequest(ctx, ref)
	if err != nil {
		return fmt.Errorf("checking for an open merge request on %q: %w", ref, err)
	}
	if open {
		return nil
	}
	title := fmt.Sprintf("Automated publishing changeset: %s", ref)
	if err := s.remote.OpenMergeRequest(ctx, ref, mainBranch, title); err != nil {
		return fmt.Errorf("opening merge request for %q: %w", ref, err)
	}
	return nil
}

// recordPath returns the canonical remote file path for a record id
// (spec.md sec 6, "Record file layout in remote repo").
func recordPath(id string) string {
	if len(id) < 4 {
		return fmt.Sprintf("records/%s.json", id)
	}
	return fmt.Sprintf("records/%s/%s/%s.json", id[:2], id[2:4], id)
}

// ensureBranch creates ref from main if it does not already exist,
// attempted exactly once per push (spec.md sec 4.C step 1, sec 8). The
// existence check is retried with backoff since it is idempotent and
// safe to retry, unlike the cache's zero-retry fetch policy
// (spec.md sec 9 / DESIGN.md).
func (s *Store) ensureBranch(ctx context.Context, ref string) error {
	var exists bool
	check := func() error {
		var err error
		exists, err = s.remote.BranchExists(ctx, ref)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(check, policy); err != nil {
		return fmt.Errorf("checking branch %q existence: %w", ref, err)
	}
	if exists {
		return nil
	}
	if err := s.remote.CreateBranch(ctx, ref, mainBranch); err != nil {
		return fmt.Errorf("creating branch %q from %q: %w", ref, mainBranch, err)
	}
	return nil
}

// Purge deletes the underlying cache directory. Frozen Store instances
// refuse (spec.md sec 4.C).
func (s *Store) Purge() error {
	if s.frozen {
		return &FrozenError{Op: "purge"}
	}
	return s.cache.Purge()
}
