package cli

import (
	"github.com/urfave/cli/v2"
)

// NewApp builds the plotterd command-line front end: plan, info, plot,
// manual, server.
func NewApp(version string) *cli.App {
	return &cli.App{
		Name:    "plotterd",
		Usage:   "pen-plotter motion planner and driver",
		Version: version,
		Commands: []*cli.Command{
			planCommand(),
			infoCommand(),
			plotCommand(),
			manualCommand(),
			serverCommand(),
		},
	}
}
