package cli

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"go.inkdrive.dev/plotterd/planner"
)

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "print the action count and estimated duration of a Job file",
		ArgsUsage: "<file>",
		Action:    runInfo,
	}
}

func runInfo(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("info: missing <file>", 1)
	}
	job, err := loadJob(path)
	if err != nil {
		return cli.Exit(err, 1)
	}

	var penUps, penDowns, moves int
	for _, a := range job.Actions {
		switch a.(type) {
		case planner.PenUp:
			penUps++
		case planner.PenDown:
			penDowns++
		case planner.StepMove:
			moves++
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"field", "value"})
	t.AppendRow(table.Row{"document", job.Document})
	t.AppendRow(table.Row{"filename", job.Filename})
	t.AppendRow(table.Row{"pen-up actions", penUps})
	t.AppendRow(table.Row{"pen-down actions", penDowns})
	t.AppendRow(table.Row{"step-move actions", moves})
	t.AppendRow(table.Row{"total actions", len(job.Actions)})
	t.AppendRow(table.Row{"estimated duration", job.Duration()})
	t.Render()
	return nil
}
