package device_test

import (
	"context"
	"testing"
	"time"

	"go.viam.com/test"

	"go.inkdrive.dev/plotterd/device"
)

func TestMockRecordsCallsInOrder(t *testing.T) {
	m := &device.Mock{}
	ctx := context.Background()

	test.That(t, m.EnableMotors(ctx, 1), test.ShouldBeNil)
	test.That(t, m.PenUp(ctx, 10*time.Millisecond), test.ShouldBeNil)
	test.That(t, m.Step(ctx, 4, -2, 30*time.Millisecond), test.ShouldBeNil)

	calls := m.Calls()
	test.That(t, calls, test.ShouldHaveLength, 3)
	test.That(t, calls[0].Name, test.ShouldEqual, "enable_motors")
	test.That(t, calls[1].Name, test.ShouldEqual, "pen_up")
	test.That(t, calls[2].M1, test.ShouldEqual, int32(4))
}

func TestMockHonorsCancellation(t *testing.T) {
	m := &device.Mock{RealTime: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Step(ctx, 1, 1, time.Second)
	test.That(t, err, test.ShouldNotBeNil)
}
