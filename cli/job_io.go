// Package cli implements the plotterd command surface: plan, info, plot,
// manual, and server. Each command is a thin wiring layer over
// planner/driver/device/control, built as an urfave/cli.App with one
// subcommand per verb.
package cli

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"go.inkdrive.dev/plotterd/planner"
)

// loadJob reads and validates a Job file.
func loadJob(path string) (planner.Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return planner.Job{}, errors.Wrapf(err, "opening job file %s", path)
	}
	defer f.Close()

	var job planner.Job
	if err := json.NewDecoder(f).Decode(&job); err != nil {
		return planner.Job{}, errors.Wrapf(err, "job file malformed: %s", path)
	}
	return job, nil
}

// saveJob writes job to path, refusing to clobber an existing file unless
// overwrite is set.
func saveJob(job planner.Job, path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.Errorf("output file %s already exists (use --overwrite)", path)
		}
	}
	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding job")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing job file %s", path)
	}
	return nil
}
