// Package cmd implements the lantern CLI: export, publish, verify, and
// version subcommands dispatched via github.com/mitchellh/cli, grounded
// on the teacher's internal/cmd/main.go (cli.BasicUi + cli.CLI{Commands})
// wiring style.
package cmd

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/antarctica/lantern-go/internal/config"
	"github.com/antarctica/lantern-go/pkg/cache"
	"github.com/antarctica/lantern-go/pkg/export"
	"github.com/antarctica/lantern-go/pkg/gitlab"
	"github.com/antarctica/lantern-go/pkg/record"
	"github.com/antarctica/lantern-go/pkg/store"
)

// buildStore constructs the Store/Cache/remote-client graph from cfg, the
// one path every subcommand shares (spec.md sec 2, "an orchestrator loads
// configuration, constructs a Store...").
func buildStore(cfg *config.Config, frozen bool, log hclog.Logger) (*store.Store, error) {
	remote, err := gitlab.NewClient(gitlab.Config{
		Endpoint:  cfg.StoreGitLabEndpoint,
		Token:     cfg.StoreGitLabToken,
		ProjectID: cfg.StoreGitLabProjectID,
		Branch:    cfg.StoreGitLabBranch,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("constructing gitlab client: %w", err)
	}

	source := gitlab.Source{Endpoint: cfg.StoreGitLabEndpoint, Project: cfg.StoreGitLabProjectID, Ref: cfg.StoreGitLabBranch}
	c, err := cache.Open(cfg.StoreGitLabCachePath, remote, source, cache.ModeNormal, cfg.ParallelJobs, log)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	return store.New(remote, c, frozen, log), nil
}

// selectRevisions resolves ids (empty selects every record) against s.
func selectRevisions(ctx context.Context, s *store.Store, ids []record.ID) ([]record.RecordRevision, error) {
	revs, err := s.Select(ctx, ids)
	if err != nil {
		return nil, err
	}
	return revs, nil
}

// adminKeys loads cfg's admin keypair as an export.AdminKeys, logging and
// falling back to the zero value (every record reads as "restricted"/
// untrusted) if the configured JWKs don't parse.
func adminKeys(cfg *config.Config, log hclog.Logger) export.AdminKeys {
	encKey, sigKey, err := cfg.AdminKeys()
	if err != nil {
		log.Warn("admin metadata keys unavailable, all records will read as restricted", "error", err)
		return export.AdminKeys{}
	}
	return export.AdminKeys{EncryptionKey: encKey, SigningKey: sigKey}
}

// isTrusted reports whether rev carries the admin-metadata "trusted" flag
// selecting the rsync-to-secure-host publish path (spec.md sec 4.D,
// "Selected by a trusted flag in metadata"). Records without a decodable
// admin token are never trusted.
func isTrusted(cfg *config.Config, rev record.RecordRevision) bool {
	token, ok := record.AdminToken(rev.Record)
	if !ok {
		return false
	}
	encKey, sigKey, err := cfg.AdminKeys()
	if err != nil {
		return false
	}
	admin, err := record.DecodeAdmin(encKey, sigKey, rev.FileIdentifier, token)
	if err != nil {
		return false
	}
	trusted, _ := admin.MetadataPermissions["trusted"].(bool)
	return trusted
}

// unimplementedRenderer/unimplementedCodec are the seams for the two
// external collaborators spec.md sec 1 names as deliberately out of
// scope (web-page template rendering, the pre-existing ISO XML codec).
// A real deployment supplies concrete implementations of
// export.TemplateRenderer / export.ISOCodec; wiring one in is outside
// this repo's boundary.
type unimplementedRenderer struct{}

func (unimplementedRenderer) Render(name string, _ any) ([]byte, error) {
	return nil, fmt.Errorf("template renderer not wired: %s is an external collaborator (spec sec 1)", name)
}

type unimplementedCodec struct{}

func (unimplementedCodec) EncodeXML(_ any) ([]byte, error) {
	return nil, fmt.Errorf("iso xml codec not wired: external collaborator (spec sec 1)")
}

var (
	_ export.TemplateRenderer = unimplementedRenderer{}
	_ export.ISOCodec         = unimplementedCodec{}
)
