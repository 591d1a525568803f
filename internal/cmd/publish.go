package cmd

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/antarctica/lantern-go/internal/config"
	"github.com/antarctica/lantern-go/pkg/export"
	"github.com/antarctica/lantern-go/pkg/publish/rsync"
	"github.com/antarctica/lantern-go/pkg/publish/s3pub"
	"github.com/antarctica/lantern-go/pkg/record"
	"github.com/antarctica/lantern-go/pkg/store"
)

// PublishCommand uploads the full site to object storage, routing
// trusted-host records to rsync instead (spec.md sec 4.D, sec 4.E).
type PublishCommand struct {
	Log hclog.Logger
	UI  cli.Ui
}

func (c *PublishCommand) Synopsis() string { return "Publish the catalogue site to object storage" }

func (c *PublishCommand) Help() string {
	return `Usage: lantern publish

  Uploads every selected record's resource exports and every site-level
  export to the configured S3-compatible bucket. Records carrying a
  trusted admin-metadata flag have their item page rsynced to the local
  relative directory items/ instead; no secure host is configured.`
}

func (c *PublishCommand) Run(args []string) int {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		c.UI.Error(fmt.Sprintf("loading config: %s", err))
		return 1
	}

	s, err := buildStore(cfg, true, c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("constructing store: %s", err))
		return 1
	}

	revisions, err := selectRevisions(ctx, s, nil)
	if err != nil {
		c.UI.Error(fmt.Sprintf("selecting records: %s", err))
		return 1
	}

	publisher, err := s3pub.NewClient(ctx, s3pub.Config{
		Bucket:    cfg.AWSS3Bucket,
		AccessKey: cfg.AWSAccessID,
		SecretKey: cfg.AWSAccessSecret,
	}, c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("constructing s3 publisher: %s", err))
		return 1
	}
	rsyncPub := &rsync.Client{}

	host := catalogueHost(cfg)
	keys := adminKeys(cfg, c.Log)
	coordinator := &export.Coordinator{
		Revisions: revisions,
		ResourceFactory: func(rev record.RecordRevision) []export.Exporter {
			return publishResourceExporters(rev, host, cfg, s, keys, rsyncPub)
		},
		SiteExporters: siteExporters(revisions, cfg),
		Workers:       cfg.ParallelJobs,
		Publisher:     publisher,
		Log:           c.Log,
	}

	if err := coordinator.Run(ctx, export.ModePublish); err != nil {
		c.UI.Error(fmt.Sprintf("publish run failed: %s", err))
		return 1
	}
	return 0
}

// publishResourceExporters mirrors resourceExporters but marks the Item
// HTML exporter Trusted/RsyncPub for records carrying the admin-metadata
// trusted flag (spec.md sec 4.D).
func publishResourceExporters(rev record.RecordRevision, host string, cfg *config.Config, s *store.Store, keys export.AdminKeys, rsyncPub export.TrustedHostPublisher) []export.Exporter {
	jobs := resourceExporters(rev, host, s, keys)
	if !isTrusted(cfg, rev) {
		return jobs
	}
	for _, job := range jobs {
		if item, ok := job.(*export.ItemExporter); ok {
			item.Trusted = true
			item.RsyncPub = rsyncPub
		}
	}
	return jobs
}
