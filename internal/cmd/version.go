package cmd

import (
	"github.com/mitchellh/cli"
)

// version is the lantern build version, overridable at link time via
// -ldflags "-X github.com/antarctica/lantern-go/internal/cmd.version=...".
var version = "dev"

// VersionCommand prints the lantern build version.
type VersionCommand struct {
	UI cli.Ui
}

func (c *VersionCommand) Synopsis() string { return "Print the lantern version" }
func (c *VersionCommand) Help() string     { return "Usage: lantern version" }

func (c *VersionCommand) Run(args []string) int {
	c.UI.Output("lantern " + version)
	return 0
}
