// Package rsync implements the trusted-host publish path used for items
// flagged trusted in their admin metadata (spec.md sec 4.D, "Trusted-host
// publish"): a synchronous rsync invocation via os/exec, grounded on the
// teacher's pattern of shelling out to an external CLI for side effects
// it does not want to reimplement (pkg/workspace/adapters/local mirrors
// files via os, not exec, but the teacher's cmd package shows the same
// os/exec.CommandContext + CombinedOutput error-surfacing idiom used by
// its linters/test runners).
package rsync

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Put copies the contents of src to targetPath, either locally (host
// empty: the rsync binary syncs src into a local target directory,
// created if absent) or on a remote host reachable via rsync-over-ssh
// (spec.md sec 4.D).
func Put(ctx context.Context, src, targetPath, host string) error {
	if host == "" {
		return putLocal(src, targetPath)
	}
	return putRemote(ctx, src, targetPath, host)
}

func putLocal(src, targetPath string) error {
	if err := os.MkdirAll(targetPath, 0o770); err != nil {
		return fmt.Errorf("rsync: creating local target %s: %w", targetPath, err)
	}
	cmd := exec.Command("rsync", "-a", "--delete", src+"/", targetPath+"/")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("rsync: local sync %s -> %s: %w: %s", src, targetPath, err, out)
	}
	return nil
}

func putRemote(ctx context.Context, src, targetPath, host string) error {
	dest := fmt.Sprintf("%s:%s", host, targetPath)
	cmd := exec.CommandContext(ctx, "rsync", "-a", "--delete", src+"/", dest+"/")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("rsync: remote sync %s -> %s: %w: %s", src, dest, err, out)
	}
	return nil
}

// Client adapts Put to the export.TrustedHostPublisher interface.
type Client struct{}

func (Client) Put(ctx context.Context, localDir, targetPath, host string) error {
	return Put(ctx, localDir, filepath.Clean(targetPath), host)
}
