// Package device models the opaque serial motion controller: a narrow
// interface over the four blocking commands the Driver dispatches, with
// a real tarm/serial-backed implementation and a deterministic Mock for
// tests and --mock runs.
package device

import (
	"context"
	"time"
)

// Device is the blocking command surface the Driver dispatches against.
// Every method blocks for (at least) the duration the command implies,
// matching the controller's synchronous command/response model.
type Device interface {
	// EnableMotors selects microstepping resolution; res in [0,5], 0 disables.
	EnableMotors(ctx context.Context, res int) error
	// ServoSetup configures the pen servo's travel endpoints and slew rates.
	ServoSetup(ctx context.Context, downPos, upPos, upSpeed, downSpeed int) error
	// PenUp raises the pen and blocks for delay.
	PenUp(ctx context.Context, delay time.Duration) error
	// PenDown lowers the pen and blocks for delay.
	PenDown(ctx context.Context, delay time.Duration) error
	// Step executes a motor-basis move and blocks for duration.
	Step(ctx context.Context, m1, m2 int32, duration time.Duration) error
	// Close releases any underlying connection.
	Close() error
}
