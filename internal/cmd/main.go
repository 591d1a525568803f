package cmd

import (
	"bufio"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Main runs the CLI with the given arguments and returns the exit code,
// grounded on the teacher's internal/cmd/main.go dispatch style (the
// teacher's initCommands/base.Command machinery is not reproduced: no such
// package exists in this repo's lineage, so commands are plain cli.Command
// implementations registered directly below, per DESIGN.md).
func Main(args []string) int {
	cliName := args[0]

	log := hclog.New(&hclog.LoggerOptions{Name: cliName})

	if len(args) == 2 && (args[1] == "-version" || args[1] == "-v") {
		args = []string{cliName, "version"}
	}
	if len(args) == 1 {
		args = append(args, "export")
	}

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	c := &cli.CLI{
		Name:    cliName,
		Args:    args[1:],
		Version: version,
		Commands: map[string]cli.CommandFactory{
			"export": func() (cli.Command, error) {
				return &ExportCommand{Log: log.Named("export"), UI: ui}, nil
			},
			"publish": func() (cli.Command, error) {
				return &PublishCommand{Log: log.Named("publish"), UI: ui}, nil
			},
			"verify": func() (cli.Command, error) {
				return &VerifyCommand{Log: log.Named("verify"), UI: ui}, nil
			},
			"version": func() (cli.Command, error) {
				return &VersionCommand{UI: ui}, nil
			},
		},
	}

	exitCode, err := c.Run()
	if err != nil {
		panic(err)
	}
	return exitCode
}
