package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/antarctica/lantern-go/pkg/record"
)

// ErrSearchExportUnsupported is returned by SearchExporter.Export: the
// website search index has no local-filesystem representation, only a
// live upsert/delete against the public website's API (spec.md sec 4.D,
// "Website Search... does not support export()").
var ErrSearchExportUnsupported = errors.New("website search exporter does not support local export")

// SearchIndexEntry is one record of the public website's search index.
type SearchIndexEntry struct {
	FileIdentifier record.ID
	FileRevision   string
	Title          string
	Abstract       string
	HierarchyLevel record.HierarchyLevel
}

// SearchAPI is the public-website search index, paginated on List
// (spec.md sec 4.D).
type SearchAPI interface {
	List(ctx context.Context) ([]SearchIndexEntry, error)
	Upsert(ctx context.Context, entry SearchIndexEntry) error
	Delete(ctx context.Context, id record.ID) error
}

// SearchExporter diffs the in-scope record set against the live public
// search index and upserts/deletes to converge it (spec.md sec 4.D,
// "Website Search").
type SearchExporter struct {
	Revisions []record.RecordRevision
	API       SearchAPI
	AdminKeys AdminKeys
}

func (e *SearchExporter) Name() string { return "website-search" }

// supersededIDs collects, across the whole revision set, the target
// identifiers named by any record's revision_of aggregation: a record
// superseding another names the superseded record as its revision_of
// target, so the superseded set is built from targets, not from which
// records themselves carry a revision_of aggregation (original:
// _get_superseded_records in lantern/exporters/website.py).
func supersededIDs(revisions []record.RecordRevision) map[string]bool {
	superseded := map[string]bool{}
	for _, rev := range revisions {
		for _, agg := range rev.Identification.Aggregations {
			if agg.AssociationCode == record.AssociationRevisionOf {
				superseded[agg.Identifier.Identifier] = true
			}
		}
	}
	return superseded
}

// inScope reports whether rev should appear in the public search index:
// publicly accessible per admin metadata, and not superseded (its own id
// is not the revision_of target of some other record in the set) (spec.md
// sec 4.D).
func inScope(rev record.RecordRevision, superseded map[string]bool, keys AdminKeys) bool {
	if accessLevelLabel(rev.Record, rev.FileIdentifier, keys) == "restricted" {
		return false
	}
	return !superseded[rev.FileIdentifier.String()]
}

func (e *SearchExporter) Export(ctx context.Context, rootDir string) error {
	return fmt.Errorf("%s: %w", e.Name(), ErrSearchExportUnsupported)
}

func (e *SearchExporter) Publish(ctx context.Context, _ Publisher) error {
	return e.Sync(ctx)
}

// Sync performs the actual convergence: it doesn't use the Publisher
// interface since it talks to the search API, not object storage.
func (e *SearchExporter) Sync(ctx context.Context) error {
	superseded := supersededIDs(e.Revisions)
	wanted := map[record.ID]SearchIndexEntry{}
	for _, rev := range e.Revisions {
		if !inScope(rev, superseded, e.AdminKeys) {
			continue
		}
		wanted[rev.FileIdentifier] = SearchIndexEntry{
			FileIdentifier: rev.FileIdentifier,
			FileRevision:   rev.FileRevision,
			Title:          rev.Identification.Title,
			Abstract:       rev.Identification.Abstract,
			HierarchyLevel: rev.HierarchyLevel,
		}
	}

	existing, err := e.API.List(ctx)
	if err != nil {
		return fmt.Errorf("%s: listing existing index: %w", e.Name(), err)
	}
	existingByID := map[record.ID]SearchIndexEntry{}
	for _, entry := range existing {
		existingByID[entry.FileIdentifier] = entry
	}

	for id, entry := range wanted {
		current, ok := existingByID[id]
		if ok && current.FileRevision == entry.FileRevision {
			continue // unchanged, skip
		}
		if err := e.API.Upsert(ctx, entry); err != nil {
			return fmt.Errorf("%s: upserting %s: %w", e.Name(), id, err)
		}
	}

	for id := range existingByID {
		if _, stillWanted := wanted[id]; stillWanted {
			continue
		}
		if err := e.API.Delete(ctx, id); err != nil {
			return fmt.Errorf("%s: deleting orphan %s: %w", e.Name(), id, err)
		}
	}

	return nil
}
