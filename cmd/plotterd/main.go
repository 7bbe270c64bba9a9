// Command plotterd is the plan/info/plot/manual/server front end over the
// motion-planning pipeline and driver state machine (SPEC_FULL.md §6).
package main

import (
	"os"

	urfavecli "github.com/urfave/cli/v2"

	"go.inkdrive.dev/plotterd/cli"
)

var version = "dev"

func main() {
	app := cli.NewApp(version)
	err := app.Run(os.Args)
	urfavecli.HandleExitCoder(err)
	if err != nil {
		os.Exit(1)
	}
}
