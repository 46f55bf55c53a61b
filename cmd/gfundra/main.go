// gfundra is the command-line entry point for running scripted escrow
// campaign scenarios and inspecting their configuration.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/fundra-network/gfundra/params"
)

const clientIdentifier = "gfundra"

var (
	scenarioFlag = &cli.StringFlag{
		Name:     "scenario",
		Usage:    "Path to the TOML scenario file (campaign config plus ordered steps)",
		Required: true,
	}
	auditDBFlag = &cli.StringFlag{
		Name:  "audit.db",
		Usage: "Directory for the leveldb-backed audit store (in-memory feed only when unset)",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log.level",
		Usage: "Log level (trace, debug, info, warn, error)",
		Value: "info",
	}
	strictFlag = &cli.BoolFlag{
		Name:  "strict",
		Usage: "Abort the scenario on the first failed step",
	}

	runCommand = &cli.Command{
		Action:    runScenario,
		Name:      "run",
		Usage:     "Execute a scripted campaign scenario",
		ArgsUsage: " ",
		Flags:     []cli.Flag{scenarioFlag, auditDBFlag, logLevelFlag, strictFlag},
		Description: `
The run command builds a fresh campaign from the scenario's [Campaign]
section, then applies every [[Steps]] entry in order through the campaign
action protocol. Transfer instructions and the audit trail are printed as
they are produced.
`,
	}
	dumpConfigCommand = &cli.Command{
		Action:    dumpConfig,
		Name:      "dumpconfig",
		Usage:     "Print the validated campaign configuration of a scenario",
		ArgsUsage: " ",
		Flags:     []cli.Flag{scenarioFlag},
	}
	versionCommand = &cli.Command{
		Action:    version,
		Name:      "version",
		Usage:     "Print version numbers",
		ArgsUsage: " ",
	}
)

func main() {
	app := &cli.App{
		Name:     clientIdentifier,
		Usage:    "staged-funding escrow campaign runner",
		Version:  params.VersionWithMeta,
		Commands: []*cli.Command{runCommand, dumpConfigCommand, versionCommand},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func version(_ *cli.Context) error {
	fmt.Println(clientIdentifier)
	fmt.Println("Version:", params.VersionWithMeta)
	return nil
}
