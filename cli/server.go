package cli

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.inkdrive.dev/plotterd/config"
	"go.inkdrive.dev/plotterd/control"
	"go.inkdrive.dev/plotterd/device"
	"go.inkdrive.dev/plotterd/driver"
	"go.inkdrive.dev/plotterd/logging"
)

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "start the HTTP+WebSocket control service",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "TCP port to listen on", Value: 8080},
			&cli.BoolFlag{Name: "mock", Usage: "use an in-memory mock device instead of a real serial connection"},
			&cli.StringFlag{Name: "port-name", Usage: "serial port the controller is attached to", Value: "/dev/ttyACM0"},
			&cli.StringFlag{Name: "config", Usage: "config file overriding planner/device defaults"},
		},
		Action: runServer,
	}
}

func runServer(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	logger := logging.NewLogger("plotterd.server")

	var dev device.Device
	if c.Bool("mock") {
		dev = &device.Mock{RealTime: true}
	} else {
		dev, err = device.OpenSerial(c.String("port-name"), cfg.ReadTimeout, cfg.MaxRetries, logger)
	}
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

	srv := control.New(drv, logger)
	addr := fmt.Sprintf(":%d", c.Int("port"))
	logger.Infof("control service listening on %s", addr)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}
