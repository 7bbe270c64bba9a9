package device

import (
	"context"
	"sync"
	"time"

	"go.viam.com/utils"
)

// Call records one dispatched command, for assertions in driver tests.
type Call struct {
	Name             string
	M1, M2           int32
	Duration         time.Duration
	Res              int
	DownPos, UpPos   int
	UpSpeed, DnSpeed int
}

// Mock is a deterministic in-memory Device, grounded in the original
// driver's MockEiBotBoard (used by axibot/server/__init__.serve when no
// real controller is configured). When RealTime is false (the default,
// and what planner/driver tests use) it returns immediately instead of
// actually sleeping for the command's duration, using
// go.viam.com/utils.SelectContextOrWait only to stay cancelable.
type Mock struct {
	RealTime bool

	mu    sync.Mutex
	calls []Call
}

// Calls returns every command dispatched so far, in order.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *Mock) record(c Call) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	m.mu.Unlock()
}

func (m *Mock) wait(ctx context.Context, d time.Duration) error {
	if !m.RealTime {
		return ctx.Err()
	}
	if !utils.SelectContextOrWait(ctx, d) {
		return ctx.Err()
	}
	return nil
}

// EnableMotors implements Device.
func (m *Mock) EnableMotors(ctx context.Context, res int) error {
	m.record(Call{Name: "enable_motors", Res: res})
	return ctx.Err()
}

// ServoSetup implements Device.
func (m *Mock) ServoSetup(ctx context.Context, downPos, upPos, upSpeed, downSpeed int) error {
	m.record(Call{Name: "servo_setup", DownPos: downPos, UpPos: upPos, UpSpeed: upSpeed, DnSpeed: downSpeed})
	return ctx.Err()
}

// PenUp implements Device.
func (m *Mock) PenUp(ctx context.Context, delay time.Duration) error {
	m.record(Call{Name: "pen_up", Duration: delay})
	return m.wait(ctx, delay)
}

// PenDown implements Device.
func (m *Mock) PenDown(ctx context.Context, delay time.Duration) error {
	m.record(Call{Name: "pen_down", Duration: delay})
	return m.wait(ctx, delay)
}

// Step implements Device.
func (m *Mock) Step(ctx context.Context, m1, m2 int32, duration time.Duration) error {
	m.record(Call{Name: "step", M1: m1, M2: m2, Duration: duration})
	return m.wait(ctx, duration)
}

// Close implements Device.
func (m *Mock) Close() error { return nil }
