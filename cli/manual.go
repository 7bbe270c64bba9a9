package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.inkdrive.dev/plotterd/config"
	"go.inkdrive.dev/plotterd/driver"
	"go.inkdrive.dev/plotterd/logging"
)

func manualCommand() *cli.Command {
	return &cli.Command{
		Name:      "manual",
		Usage:     "interactive pen-up/pen-down driver commands",
		ArgsUsage: "[cmd ...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "mock", Usage: "use an in-memory mock device instead of a real serial connection"},
			&cli.StringFlag{Name: "port", Usage: "serial port the controller is attached to", Value: "/dev/ttyACM0"},
			&cli.StringFlag{Name: "config", Usage: "config file overriding planner/device defaults"},
		},
		Action: runManual,
	}
}

func runManual(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	logger := logging.NewLogger("plotterd.manual")

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

	// Commands given on the command line run once and exit; with none, this
	// becomes an interactive REPL over stdin, both dispatching through the
	// same runManualCmd switch.
	if args := c.Args().Slice(); len(args) > 0 {
		for _, a := range args {
			if err := runManualCmd(drv, a); err != nil {
				return cli.Exit(err, 1)
			}
		}
		return nil
	}

	fmt.Println("manual mode: pen-up | pen-down | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := runManualCmd(drv, line); err != nil {
			color.Red("error: %v", err)
		}
	}
}

func runManualCmd(drv *driver.Driver, cmd string) error {
	const settleDelay = 500 * time.Millisecond
	switch cmd {
	case "pen-up":
		return drv.ManualPenUp(settleDelay)
	case "pen-down":
		return drv.ManualPenDown(settleDelay)
	default:
		return errors.Errorf("unknown manual command %q (expected pen-up or pen-down)", cmd)
	}
}
