package cmd

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/antarctica/lantern-go/internal/config"
	"github.com/antarctica/lantern-go/pkg/verify"
)

// VerifyCommand runs the post-publish HTTP verification sweep and writes
// its report (spec.md sec 4.F).
type VerifyCommand struct {
	Log hclog.Logger
	UI  cli.Ui
}

func (c *VerifyCommand) Synopsis() string { return "Verify the published catalogue site" }

func (c *VerifyCommand) Help() string {
	return `Usage: lantern verify

  Runs the site-page, record-format, item-page, alias-redirect, DOI-redirect,
  distribution, and item-download checks against BASE_URL and writes the
  report to EXPORT_PATH/-/verification/{data.json,index.html}.`
}

func (c *VerifyCommand) Run(args []string) int {
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

	vcfg := verify.Config{
		BaseURL:                 cfg.BaseURL,
		SharePointProxyEndpoint: cfg.VerifySharePointProxyEndpoint,
		SANProxyEndpoint:        cfg.VerifySANProxyEndpoint,
		CatalogueHost:           catalogueHost(cfg),
	}

	jobs := verify.BuildPlan(vcfg, revisions)
	jobs = verify.Run(ctx, jobs, cfg.ParallelJobs, nil)
	report := verify.Compile(jobs)

	if err := verify.Write(ctx, report, cfg.ExportPath, unimplementedRenderer{}); err != nil {
		c.UI.Error(fmt.Sprintf("writing verification report: %s", err))
		return 1
	}

	if !report.Pass {
		c.UI.Error(fmt.Sprintf("verification failed: site %d/%d, resource %d/%d",
			report.Site.PassCount, report.Site.TotalCount, report.Resource.PassCount, report.Resource.TotalCount))
		return 1
	}
	c.UI.Info("verification passed")
	return 0
}
