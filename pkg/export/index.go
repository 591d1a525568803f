package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/antarctica/lantern-go/pkg/record"
)

// IndexEntry is one row of the site index listing.
type IndexEntry struct {
	FileIdentifier record.ID
	Title          string
	HierarchyLevel record.HierarchyLevel
	Aliases        []string
}

// IndexViewModel is the data passed to _views/index.html.j2.
type IndexViewModel struct {
	Entries []IndexEntry
}

// IndexExporter renders a single basic listing page of every exported
// record and its aliases (spec.md sec 4.D, "Site Index").
type IndexExporter struct {
	Revisions []record.RecordRevision
	Renderer  TemplateRenderer
}

func (e *IndexExporter) Name() string { return "site-index" }

func (e *IndexExporter) path() string { return filepath.Join("-", "index", "index.html") }

func (e *IndexExporter) viewModel() IndexViewModel {
	entries := make([]IndexEntry, len(e.Revisions))
	for i, rev := range e.Revisions {
		var aliases []string
		for _, ident := range rev.Identification.Identifiers {
			if ident.Namespace == record.AliasNamespacePrefix+rev.FileIdentifier.String() ||
				len(ident.Namespace) > len(record.AliasNamespacePrefix) && ident.Namespace[:len(record.AliasNamespacePrefix)] == record.AliasNamespacePrefix {
				aliases = append(aliases, ident.Identifier)
			}
		}
		entries[i] = IndexEntry{
			FileIdentifier: rev.FileIdentifier,
			Title:          rev.Identification.Title,
			HierarchyLevel: rev.HierarchyLevel,
			Aliases:        aliases,
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Title < entries[j].Title })
	return IndexViewModel{Entries: entries}
}

func (e *IndexExporter) body() ([]byte, error) {
	return e.Renderer.Render("_views/index.html.j2", e.viewModel())
}

func (e *IndexExporter) Export(ctx context.Context, rootDir string) error {
	body, err := e.body()
	if err != nil {
		return fmt.Errorf("%s: %w", e.Name(), err)
	}
	dest := filepath.Join(rootDir, e.path())
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, body, 0o644)
}

func (e *IndexExporter) Publish(ctx context.Context, pub Publisher) error {
	body, err := e.body()
	if err != nil {
		return fmt.Errorf("%s: %w", e.Name(), err)
	}
	return pub.UploadContent(ctx, e.path(), contentTypeFor(".html"), body, nil, "")
}
