package driver

import "github.com/pkg/errors"

var (
	errNotIdle     = errors.New("driver: operation requires Idle phase")
	errNotPlotting = errors.New("driver: operation requires Plotting or Paused phase")
	errNotPaused   = errors.New("driver: operation requires Paused phase")

	errNotPlottingOnly = errors.New("driver: operation requires Plotting phase")
)
