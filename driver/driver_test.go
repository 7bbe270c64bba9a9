package driver_test

import (
	"context"
	"testing"
	"time"

	"go.viam.com/test"
	"go.viam.com/utils"

	"go.inkdrive.dev/plotterd/config"
	"go.inkdrive.dev/plotterd/device"
	"go.inkdrive.dev/plotterd/driver"
	"go.inkdrive.dev/plotterd/logging"
	"go.inkdrive.dev/plotterd/planner"
)

func longJob(t *testing.T) planner.Job {
	t.Helper()
	cfg := config.Default()
	// A long diagonal path guarantees enough StepMove actions that a
	// cancel/pause issued "mid-job" lands inside the move rather than
	// racing the Driver straight to Completed.
	job, err := planner.Plan([]planner.Polyline{
		{{X: 0, Y: 0}, {X: 4, Y: 3}},
	}, cfg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(job.Actions) > 2, test.ShouldBeTrue)
	return job
}

func waitForPhase(t *testing.T, d *driver.Driver, phase driver.Phase, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if d.Snapshot().Phase == phase {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for phase %s, last seen %s", phase, d.Snapshot().Phase)
}

// TestCancelMidJobReturnsToOrigin covers SPEC_FULL.md §8 Scenario F:
// canceling mid-plot decelerates, raises the pen if down, transits back
// to the origin, and leaves the Driver Idle at (0,0).
func TestCancelMidJobReturnsToOrigin(t *testing.T) {
	// RealTime so each action actually takes wall-clock time, giving this
	// goroutine a real window to cancel mid-dispatch instead of racing a
	// dispatch loop that would otherwise finish in microseconds.
	mock := &device.Mock{RealTime: true}
	d := driver.New(mock, config.Default(), logging.TestLogger(t))

	ctx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	utils.PanicCapturingGo(func() { d.Run(ctx) })

	job := longJob(t)
	test.That(t, d.Start(job), test.ShouldBeNil)

	// Let a few actions dispatch before canceling.
	for i := 0; i < 5 && d.Snapshot().ActionIndex == 0; i++ {
		time.Sleep(time.Millisecond)
	}
	test.That(t, d.Cancel(), test.ShouldBeNil)

	waitForPhase(t, d, driver.Idle, 2*time.Second)

	final := d.Snapshot()
	test.That(t, final.Position.X, test.ShouldEqual, int32(0))
	test.That(t, final.Position.Y, test.ShouldEqual, int32(0))
	test.That(t, final.PenUp == nil || *final.PenUp, test.ShouldBeTrue)
}

// TestPauseResumeContinuesFromSameActionIndex covers SPEC_FULL.md §8
// Scenario G: pausing mid-plot halts dispatch after the in-flight action
// completes, and resuming continues from the exact action index with no
// action skipped or repeated.
func TestPauseResumeContinuesFromSameActionIndex(t *testing.T) {
	mock := &device.Mock{RealTime: true}
	d := driver.New(mock, config.Default(), logging.TestLogger(t))

	ctx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	utils.PanicCapturingGo(func() { d.Run(ctx) })

	job := longJob(t)
	test.That(t, d.Start(job), test.ShouldBeNil)

	for i := 0; i < 5 && d.Snapshot().ActionIndex == 0; i++ {
		time.Sleep(time.Millisecond)
	}
	test.That(t, d.Pause(), test.ShouldBeNil)
	waitForPhase(t, d, driver.Paused, time.Second)

	pausedIndex := d.Snapshot().ActionIndex
	// Confirm the dispatch loop has genuinely stopped advancing while paused.
	time.Sleep(20 * time.Millisecond)
	test.That(t, d.Snapshot().ActionIndex, test.ShouldEqual, pausedIndex)

	test.That(t, d.Resume(), test.ShouldBeNil)
	waitForPhase(t, d, driver.Idle, 2*time.Second)

	final := d.Snapshot()
	test.That(t, final.ActionIndex, test.ShouldEqual, len(job.Actions))

	calls := mock.Calls()
	steps := 0
	for _, c := range calls {
		if c.Name == "step" {
			steps++
		}
	}
	test.That(t, steps > 0, test.ShouldBeTrue)
}

// TestManualPenControlOnlyValidWhenIdle covers the Idle-only precondition
// on ManualPenUp/ManualPenDown (SPEC_FULL.md §4.8).
func TestManualPenControlOnlyValidWhenIdle(t *testing.T) {
	mock := &device.Mock{RealTime: true}
	d := driver.New(mock, config.Default(), logging.TestLogger(t))

	ctx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	utils.PanicCapturingGo(func() { d.Run(ctx) })

	test.That(t, d.ManualPenDown(50*time.Millisecond), test.ShouldBeNil)
	test.That(t, d.ManualPenUp(50*time.Millisecond), test.ShouldBeNil)

	test.That(t, d.Start(longJob(t)), test.ShouldBeNil)
	for i := 0; i < 5 && d.Snapshot().Phase != driver.Plotting; i++ {
		time.Sleep(time.Millisecond)
	}
	test.That(t, d.ManualPenUp(10*time.Millisecond), test.ShouldNotBeNil)
}
