package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.inkdrive.dev/plotterd/config"
	"go.inkdrive.dev/plotterd/pathset"
	"go.inkdrive.dev/plotterd/planner"
)

func planCommand() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "run the motion-planning pipeline over a path fixture and write a Job file",
		ArgsUsage: "<infile>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "output Job file path (default: <infile> with its extension replaced by .plan.json)"},
			&cli.BoolFlag{Name: "overwrite", Usage: "overwrite an existing output file"},
			&cli.StringFlag{Name: "config", Usage: "config file overriding planner/device defaults"},
		},
		Action: runPlan,
	}
}

func runPlan(c *cli.Context) error {
	in := c.Args().First()
	if in == "" {
		return cli.Exit("plan: missing <infile>", 1)
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err, 1)
	}

	f, err := os.Open(in)
	if err != nil {
		return cli.Exit(errors.Wrapf(err, "opening %s", in), 1)
	}
	defer f.Close()

	paths, err := pathset.Load(f)
	if err != nil {
		return cli.Exit(err, 1)
	}
	paths = pathset.OrderNearestNeighbor(paths)

	job, err := planner.Plan(paths, cfg)
	if err != nil {
		return cli.Exit(err, 1)
	}
	job.Filename = filepath.Base(in)
	job.Document = uuid.New().String()

	out := c.String("out")
	if out == "" {
		ext := filepath.Ext(in)
		out = strings.TrimSuffix(in, ext) + ".plan.json"
	}
	if err := saveJob(job, out, c.Bool("overwrite")); err != nil {
		return cli.Exit(err, 1)
	}

	color.Green("planned %d paths into %d actions (%s) -> %s", len(paths), len(job.Actions), job.Duration(), out)
	return nil
}
