package cmd

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/antarctica/lantern-go/internal/config"
	"github.com/antarctica/lantern-go/pkg/export"
	"github.com/antarctica/lantern-go/pkg/record"
	"github.com/antarctica/lantern-go/pkg/store"
)

// catalogueHost extracts the bare host from cfg.BaseURL, used to
// recognise alias identifiers (namespace "alias.<host>").
func catalogueHost(cfg *config.Config) string {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// ExportCommand writes the full site to the local filesystem
// (spec.md sec 4.D, sec 6 "EXPORT_PATH").
type ExportCommand struct {
	Log hclog.Logger
	UI  cli.Ui
}

func (c *ExportCommand) Synopsis() string { return "Export the catalogue site to a local directory" }

func (c *ExportCommand) Help() string {
	return `Usage: lantern export

  Writes every selected record's resource exports and every site-level
  export to EXPORT_PATH.`
}

func (c *ExportCommand) Run(args []string) int {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		c.UI.Error(fmt.Sprintf("loading config: %s", err))
		return 1
	}

	s, err := buildStore(cfg, true, c.Log) // frozen: read-only snapshot shared across workers (spec.md sec 5)
	if err != nil {
		c.UI.Error(fmt.Sprintf("constructing store: %s", err))
		return 1
	}

	revisions, err := selectRevisions(ctx, s, nil)
	if err != nil {
		c.UI.Error(fmt.Sprintf("selecting records: %s", err))
		return 1
	}

	host := catalogueHost(cfg)
	keys := adminKeys(cfg, c.Log)
	coordinator := &export.Coordinator{
		Revisions:       revisions,
		ResourceFactory: func(rev record.RecordRevision) []export.Exporter { return resourceExporters(rev, host, s, keys) },
		SiteExporters:   siteExporters(revisions, cfg),
		Workers:         cfg.ParallelJobs,
		RootDir:         cfg.ExportPath,
		Log:             c.Log,
	}

	if err := coordinator.Run(ctx, export.ModeExport); err != nil {
		c.UI.Error(fmt.Sprintf("export run failed: %s", err))
		return 1
	}
	return 0
}

// relatedResolver resolves an aggregation target against s's frozen
// snapshot, the seam PaperMapItemStrategy uses to compose side records
// (spec.md sec 9, "resolve lazily through the Store").
func relatedResolver(s *store.Store) export.RelatedRecordResolver {
	return func(ctx context.Context, id record.ID) (record.RecordRevision, error) {
		return s.SelectOne(ctx, id)
	}
}

// resourceExporters builds every per-record resource exporter applicable
// to rev, including one HTML Aliases exporter per alias identifier
// (spec.md sec 4.D).
func resourceExporters(rev record.RecordRevision, host string, s *store.Store, keys export.AdminKeys) []export.Exporter {
	codec := unimplementedCodec{}
	renderer := unimplementedRenderer{}
	id := rev.FileIdentifier.String()
	jobs := []export.Exporter{
		&export.ISOExporter{Revision: rev, Codec: codec},
		&export.ISOHTMLExporter{Revision: rev, Codec: codec, StylesheetHref: "/static/xsl/iso-html/iso-html.xsl"},
		&export.JSONExporter{Revision: rev},
		&export.ItemExporter{
			Revision:   rev,
			Renderer:   renderer,
			Strategies: []export.ItemStrategy{export.PaperMapItemStrategy{}, export.DefaultItemStrategy{}},
			Related:    relatedResolver(s),
			AdminKeys:  keys,
		},
	}

	aliasNamespace := record.AliasNamespacePrefix + host
	for _, ident := range rev.Identification.Identifiers {
		if ident.Namespace != aliasNamespace {
			continue
		}
		jobs = append(jobs, &export.AliasExporter{
			Revision:   rev,
			AliasPath:  ident.Identifier,
			ItemTarget: "/items/" + id + "/",
		})
	}
	return jobs
}

func siteExporters(revisions []record.RecordRevision, cfg *config.Config) []export.Exporter {
	return []export.Exporter{
		&export.PagesExporter{Renderer: unimplementedRenderer{}},
		&export.IndexExporter{Revisions: revisions, Renderer: unimplementedRenderer{}},
	}
}
