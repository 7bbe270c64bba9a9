package device

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"

	"go.inkdrive.dev/plotterd/logging"
)

// ErrDeviceProtocol is returned when the controller's response does not
// match what the command surface expects.
var ErrDeviceProtocol = errors.New("device protocol error")

// Serial is a Device backed by a real line-oriented serial connection:
// one ASCII command per line, terminated by a line response, with a
// bounded empty-read retry loop.
type Serial struct {
	port       *serial.Port
	reader     *bufio.Reader
	logger     logging.Logger
	maxRetries int
}

// OpenSerial opens portName at the controller's expected baud rate (9600,
// matching the EiBotBoard's USB-CDC default) with the given per-read
// timeout, and returns a ready-to-use Serial device.
func OpenSerial(portName string, readTimeout time.Duration, maxRetries int, logger logging.Logger) (*Serial, error) {
	cfg := &serial.Config{Name: portName, Baud: 9600, ReadTimeout: readTimeout}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "device unavailable: opening %s", portName)
	}
	return &Serial{
		port:       port,
		reader:     bufio.NewReader(port),
		logger:     logger,
		maxRetries: maxRetries,
	}, nil
}

// robustReadLine retries an empty/timed-out read up to maxRetries times.
func (s *Serial) robustReadLine() (string, error) {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		line, err := s.reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			return line, nil
		}
		if err != nil {
			s.logger.Debugf("empty read (attempt %d/%d): %v", attempt+1, s.maxRetries, err)
		}
	}
	return "", errors.Wrap(ErrDeviceProtocol, "no response after max retries")
}

func (s *Serial) command(ctx context.Context, cmd string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.port, "%s\r", cmd); err != nil {
		return errors.Wrapf(err, "writing command %q", cmd)
	}
	line, err := s.robustReadLine()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(line, "OK") {
		return errors.Wrapf(ErrDeviceProtocol, "unexpected response to %q: %q", cmd, line)
	}
	return nil
}

// EnableMotors implements Device.
func (s *Serial) EnableMotors(ctx context.Context, res int) error {
	if res < 0 {
		res = 0
	} else if res > 5 {
		res = 5
	}
	return s.command(ctx, fmt.Sprintf("EM,%d,%d", res, res))
}

// ServoSetup implements Device.
func (s *Serial) ServoSetup(ctx context.Context, downPos, upPos, upSpeed, downSpeed int) error {
	if err := s.command(ctx, fmt.Sprintf("SC,4,%d", downPos)); err != nil {
		return err
	}
	if err := s.command(ctx, fmt.Sprintf("SC,5,%d", upPos)); err != nil {
		return err
	}
	if err := s.command(ctx, fmt.Sprintf("SC,10,%d", upSpeed)); err != nil {
		return err
	}
	return s.command(ctx, fmt.Sprintf("SC,11,%d", downSpeed))
}

// PenUp implements Device.
func (s *Serial) PenUp(ctx context.Context, delay time.Duration) error {
	return s.command(ctx, fmt.Sprintf("SP,1,%d", delay.Milliseconds()))
}

// PenDown implements Device.
func (s *Serial) PenDown(ctx context.Context, delay time.Duration) error {
	return s.command(ctx, fmt.Sprintf("SP,0,%d", delay.Milliseconds()))
}

// Step implements Device. The wire protocol swaps axis order relative to
// our motor basis (axis1=Y, axis2=X).
func (s *Serial) Step(ctx context.Context, m1, m2 int32, duration time.Duration) error {
	return s.command(ctx, fmt.Sprintf("SM,%d,%d,%d", duration.Milliseconds(), m2, m1))
}

// Close implements Device.
func (s *Serial) Close() error {
	return s.port.Close()
}
