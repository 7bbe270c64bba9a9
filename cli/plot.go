package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.inkdrive.dev/plotterd/config"
	"go.inkdrive.dev/plotterd/device"
	"go.inkdrive.dev/plotterd/driver"
	"go.inkdrive.dev/plotterd/logging"
)

func plotCommand() *cli.Command {
	return &cli.Command{
		Name:      "plot",
		Usage:     "stream a planned Job to the device",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "mock", Usage: "use an in-memory mock device instead of a real serial connection"},
			&cli.StringFlag{Name: "port", Usage: "serial port the controller is attached to", Value: "/dev/ttyACM0"},
			&cli.StringFlag{Name: "config", Usage: "config file overriding planner/device defaults"},
		},
		Action: runPlot,
	}
}

// openDevice constructs the Device named by the --mock/--port flags,
// matching SPEC_FULL.md §4.9's two implementations.
func openDevice(c *cli.Context, cfg config.Config, logger logging.Logger) (device.Device, error) {
	if c.Bool("mock") {
		return &device.Mock{RealTime: true}, nil
	}
	return device.OpenSerial(c.String("port"), cfg.ReadTimeout, cfg.MaxRetries, logger)
}

func runPlot(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("plot: missing <file>", 1)
	}
	job, err := loadJob(path)
	if err != nil {
		return cli.Exit(err, 1)
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	logger := logging.NewLogger("plotterd.plot")

	dev, err := openDevice(c, cfg, logger)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer dev.Close()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	if err := dev.EnableMotors(ctx, cfg.DefaultMicrostepResolution); err != nil {
		return cli.Exit(errors.Wrap(err, "enabling motors"), 1)
	}
	if err := dev.ServoSetup(ctx, cfg.ServoMin, cfg.ServoMax, cfg.ServoSpeed, cfg.ServoSpeed); err != nil {
		return cli.Exit(errors.Wrap(err, "configuring servo"), 1)
	}

	drv := driver.New(dev, cfg, logger)
	utils.PanicCapturingGo(func() { drv.Run(ctx) })

	fmt.Printf("loaded %s: %d actions, estimated %s. Press ENTER to start plotting (Ctrl+C to abort)...\n",
		path, len(job.Actions), job.Duration())
	bufio.NewReader(os.Stdin).ReadString('\n')

	if err := drv.Start(job); err != nil {
		return cli.Exit(err, 1)
	}

	for evt := range drv.Events() {
		switch e := evt.(type) {
		case driver.StateChanged:
			fmt.Printf("\raction %d/%d, position (%d,%d), %dms elapsed   ",
				e.State.ActionIndex, len(job.Actions), e.State.Position.X, e.State.Position.Y, e.State.ConsumedMS)
		case driver.Completed:
			fmt.Println()
			color.Green("done: estimated %s, actual %s", e.Estimated, e.Actual)
			return nil
		case driver.ErrorEvent:
			fmt.Println()
			return cli.Exit(e.Err, 1)
		}
	}
	return nil
}
