// Package cache implements the durable local SQLite mirror of the remote
// record store, plus its in-memory flash layer (spec.md sec 4.B),
// grounded on the teacher's pkg/database GORM connection pattern and
// pkg/migration/worker.go's task-processing control flow.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/antarctica/lantern-go/pkg/export/workerpool"
	"github.com/antarctica/lantern-go/pkg/gitlab"
	"github.com/antarctica/lantern-go/pkg/record"
)

// refreshCommitThreshold is the incremental-refresh commit-range ceiling;
// beyond it a full recreate is cheaper (spec.md sec 4.B).
const refreshCommitThreshold = 50

// Mode selects the cache's remote-contact policy.
type Mode int

const (
	// ModeNormal refreshes against remote when stale and populates on
	// first use.
	ModeNormal Mode = iota
	// ModeFrozen never contacts the remote; any operation requiring
	// upstream state fails with FrozenError.
	ModeFrozen
	// ModeOffline proceeds only against an existing, source-matching
	// cache, logging a staleness warning.
	ModeOffline
)

// Cache is the durable local mirror of one GitLab source's record set.
type Cache struct {
	dir     string
	db      *gorm.DB
	flash   *flash
	remote  *gitlab.Client
	source  gitlab.Source
	mode    Mode
	workers int
	log     hclog.Logger
}

// Open opens (creating if necessary) the cache directory dir, wiring the
// SQLite database and in-memory flash layer.
func Open(dir string, remote *gitlab.Client, source gitlab.Source, mode Mode, workers int, log hclog.Logger) (*Cache, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := openDB(dir, log.Named("cache.db"))
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	if workers < 1 {
		workers = 1
	}
	return &Cache{
		dir:     dir,
		db:      db,
		flash:   newFlash(),
		remote:  remote,
		source:  source,
		mode:    mode,
		workers: workers,
		log:     log.Named("cache"),
	}, nil
}

// Exists reports whether the cache has been populated at least once.
func (c *Cache) Exists() bool {
	var count int64
	c.db.Model(&cacheMeta{}).Where("key = ?", metaHeadCommit).Count(&count)
	return count > 0
}

// CachedHeadCommit returns the head_commit meta value, or "" if unset.
func (c *Cache) CachedHeadCommit() string {
	return c.metaValue(metaHeadCommit)
}

// CachedSource returns the (endpoint, project, ref) the cache was last
// populated against.
func (c *Cache) CachedSource() gitlab.Source {
	return gitlab.Source{
		Endpoint: c.metaValue(metaSourceEndpoint),
		Project:  c.metaValue(metaSourceProject),
		Ref:      c.metaValue(metaSourceRef),
	}
}

func (c *Cache) metaValue(key string) string {
	var row cacheMeta
	if err := c.db.Where("key = ?", key).First(&row).Error; err != nil {
		return ""
	}
	return row.Value
}

// EnsureFresh applies the applicability/staleness protocol of spec.md sec
// 4.B: recreate on source mismatch (if allowed), refresh on staleness (if
// allowed), or fail with the appropriate mode-specific error.
func (c *Cache) EnsureFresh(ctx context.Context) error {
	if !c.Exists() {
		if c.mode == ModeFrozen {
			return &FrozenError{Op: "populate an uninitialised cache"}
		}
		if c.mode == ModeOffline {
			return &NotInitialisedError{Dir: c.dir}
		}
		return c.Create(ctx)
	}

	if !c.CachedSource().Equal(c.source) {
		if c.mode == ModeFrozen {
			return &FrozenError{Op: "recreate cache for a different source"}
		}
		if c.mode == ModeOffline {
			return fmt.Errorf("cache source %s does not match configured source %s", c.CachedSource(), c.source)
		}
		return c.Create(ctx)
	}

	switch c.mode {
	case ModeFrozen:
		return nil
	case ModeOffline:
		c.log.Warn("operating offline against a potentially stale cache", "head_commit", c.CachedHeadCommit())
		return nil
	default:
		remoteHead, err := c.remote.HeadCommit(ctx, c.source.Ref)
		if err != nil {
			return fmt.Errorf("checking remote staleness: %w", err)
		}
		if remoteHead == c.CachedHeadCommit() {
			return nil
		}
		return c.Refresh(ctx, remoteHead)
	}
}

// Create performs a full recreate: lists every record blob on the
// configured ref, fetches content+last-commit-id for each over a worker
// pool, parses+validates+hashes+serialises each in its worker, then
// commits every row plus the four meta keys in a single transaction
// (spec.md sec 4.B, "Create (full)").
func (c *Cache) Create(ctx context.Context) error {
	if c.mode == ModeFrozen {
		return &FrozenError{Op: "recreate cache"}
	}

	paths, err := c.remote.ListRecordBlobs(ctx, c.source.Ref)
	if err != nil {
		return fmt.Errorf("listing record blobs: %w", err)
	}
	head, err := c.remote.HeadCommit(ctx, c.source.Ref)
	if err != nil {
		return fmt.Errorf("fetching head commit: %w", err)
	}

	rows, err := c.fetchAndBuildRows(ctx, paths)
	if err != nil {
		return err
	}

	if err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM record").Error; err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return c.upsertMeta(tx, head)
	}); err != nil {
		return fmt.Errorf("committing recreated cache: %w", err)
	}

	c.flash.clear()
	c.log.Info("cache recreated", "records", len(rows), "head_commit", head)
	return nil
}

// Refresh performs an incremental refresh against remoteHead: if the
// commit range exceeds refreshCommitThreshold, or a rename/delete is
// observed under records/, it falls back to Create (spec.md sec 4.B,
// "Refresh (incremental)").
func (c *Cache) Refresh(ctx context.Context, remoteHead string) error {
	if c.mode == ModeFrozen {
		return &FrozenError{Op: "refresh cache"}
	}

	cachedHead := c.CachedHeadCommit()
	commits, err := c.remote.CommitRange(ctx, cachedHead, remoteHead)
	if err != nil {
		return fmt.Errorf("computing commit range: %w", err)
	}
	if len(commits) > refreshCommitThreshold {
		c.log.Info("refresh range exceeds threshold, falling back to recreate", "commits", len(commits))
		return c.Create(ctx)
	}

	newPaths := map[string]bool{}
	for _, sha := range commits {
		diff, err := c.remote.CommitDiff(ctx, sha)
		if err != nil {
			return fmt.Errorf("fetching diff for commit %s: %w", sha, err)
		}
		for _, entry := range diff {
			if !isRecordPath(entry.NewPath) && !isRecordPath(entry.OldPath) {
				continue
			}
			if entry.RenamedFile || entry.DeletedFile {
				c.log.Warn("refresh observed rename/delete under records/, falling back to recreate", "commit", sha, "path", entry.OldPath)
				return c.Create(ctx)
			}
			if isRecordPath(entry.NewPath) {
				newPaths[entry.NewPath] = true
			}
		}
	}

	paths := make([]string, 0, len(newPaths))
	for p := range newPaths {
		paths = append(paths, p)
	}

	rows, err := c.fetchAndBuildRows(ctx, paths)
	if err != nil {
		return err
	}

	if err := c.db.Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			// A content change gives a row a new sha1 (the primary key)
			// but keeps the same file_identifier (unique-indexed), so an
			// OnConflict keyed on sha1 alone cannot replace the prior row
			// for a changed record: delete it first, keyed on the one
			// column that actually identifies "the same record".
			ids := make([]string, 0, len(rows))
			for _, row := range rows {
				if row.FileIdentifier != "" {
					ids = append(ids, row.FileIdentifier)
				}
			}
			if len(ids) > 0 {
				if err := tx.Where("file_identifier IN ?", ids).Delete(&cacheRecord{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "sha1"}},
				DoNothing: true,
			}).Create(&rows).Error; err != nil {
				return err
			}
		}
		return c.upsertMeta(tx, remoteHead)
	}); err != nil {
		return fmt.Errorf("committing refreshed cache: %w", err)
	}

	c.flash.clear()
	c.log.Info("cache refreshed", "changed_records", len(rows), "head_commit", remoteHead)
	return nil
}

func isRecordPath(p string) bool {
	return len(p) > len("records/") && p[:len("records/")] == "records/" && filepath.Ext(p) == ".json"
}

func (c *Cache) fetchAndBuildRows(ctx context.Context, paths []string) ([]cacheRecord, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	rows, err := workerpool.RunCollect(ctx, paths, c.workers, func(ctx context.Context, path string) (cacheRecord, error) {
		file, err := c.remote.GetFile(ctx, path, c.source.Ref)
		if err != nil {
			return cacheRecord{}, fmt.Errorf("fetching %s: %w", path, err)
		}
		rev, err := record.StructureRevision(file.Content, file.LastCommitID)
		if err != nil {
			c.log.Warn("skipping malformed record", "path", path, "error", err)
			return cacheRecord{}, nil
		}
		sha, err := rev.Record.SHA1()
		if err != nil {
			return cacheRecord{}, fmt.Errorf("hashing %s: %w", path, err)
		}
		jsonBody, err := json.Marshal(rev)
		if err != nil {
			return cacheRecord{}, fmt.Errorf("serialising %s: %w", path, err)
		}
		return cacheRecord{
			SHA1:           sha,
			FileIdentifier: rev.FileIdentifier.String(),
			FileRevision:   rev.FileRevision,
			RecordJSONB:    jsonBody,
			RecordPickled:  jsonBody,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	kept := rows[:0]
	for _, row := range rows {
		if row.SHA1 != "" { // empty row: a malformed record skipped above
			kept = append(kept, row)
		}
	}
	return kept, nil
}

func (c *Cache) upsertMeta(tx *gorm.DB, head string) error {
	rows := []cacheMeta{
		{Key: metaSourceEndpoint, Value: c.source.Endpoint},
		{Key: metaSourceProject, Value: c.source.Project},
		{Key: metaSourceRef, Value: c.source.Ref},
		{Key: metaHeadCommit, Value: head},
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&rows).Error
}

// Get returns the RecordRevisions present for ids, ensuring the cache is
// fresh first. Unknown ids are silently omitted — all-or-nothing
// semantics are the Store layer's responsibility (spec.md sec 4.B).
func (c *Cache) Get(ctx context.Context, ids []record.ID) ([]record.RecordRevision, error) {
	if err := c.EnsureFresh(ctx); err != nil {
		return nil, err
	}

	var wanted map[string]bool
	if ids != nil {
		wanted = make(map[string]bool, len(ids))
		for _, id := range ids {
			wanted[id.String()] = true
		}
	}

	var out []record.RecordRevision
	seen := map[string]bool{}

	if ids != nil {
		for _, id := range ids {
			if rev, ok := c.flash.get(id.String()); ok {
				out = append(out, rev)
				seen[id.String()] = true
			}
		}
	}

	var rows []cacheRecord
	q := c.db
	if ids != nil {
		remaining := make([]string, 0, len(ids))
		for _, id := range ids {
			if !seen[id.String()] {
				remaining = append(remaining, id.String())
			}
		}
		if len(remaining) == 0 {
			return out, nil
		}
		q = q.Where("file_identifier IN ?", remaining)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying cache: %w", err)
	}

	for _, row := range rows {
		var rev record.RecordRevision
		if err := json.Unmarshal(row.RecordJSONB, &rev); err != nil {
			return nil, fmt.Errorf("decoding cached record %s: %w", row.FileIdentifier, err)
		}
		if wanted != nil && !wanted[rev.FileIdentifier.String()] {
			continue
		}
		c.flash.put(rev)
		out = append(out, rev)
	}
	return out, nil
}

// GetHashes returns the cached content hash for each of ids present in the
// cache, used by Store.Push to classify skip/update/new (spec.md sec 4.B).
func (c *Cache) GetHashes(ids []record.ID) (map[string]string, error) {
	idStrs := make([]string, len(ids))
	for i, id := range ids {
		idStrs[i] = id.String()
	}
	var rows []cacheRecord
	if err := c.db.Where("file_identifier IN ?", idStrs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying cache hashes: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.FileIdentifier] = row.SHA1
	}
	return out, nil
}

// Purge deletes the cache directory entirely.
func (c *Cache) Purge() error {
	if sqlDB, err := c.db.DB(); err == nil {
		sqlDB.Close()
	}
	c.flash.clear()
	return os.RemoveAll(c.dir)
}
