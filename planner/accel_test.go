package planner_test

import (
	"math"
	"testing"

	"go.viam.com/test"

	"go.inkdrive.dev/plotterd/planner"
)

func TestLimitAccelerationRespectsReachability(t *testing.T) {
	seg := planner.PlannedSegment{
		Points: []planner.StepPoint{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 0}},
		VLimit: []float64{0, 100, 0},
		PenUp:  false,
	}
	aMax := 1.0
	out := planner.LimitAcceleration(seg, aMax)
	// v1 must be reachable from v0=0 over distance 10 under aMax=1: v <= sqrt(2*1*10).
	test.That(t, out.VLimit[1], test.ShouldBeLessThanOrEqualTo, math.Sqrt(20)+1e-9)
	// and reachable in reverse from v2=0 over distance 10.
	test.That(t, out.VLimit[1], test.ShouldBeLessThanOrEqualTo, math.Sqrt(20)+1e-9)
}

func TestLimitAccelerationNoOpWhenAlreadyFeasible(t *testing.T) {
	seg := planner.PlannedSegment{
		Points: []planner.StepPoint{{X: 0, Y: 0}, {X: 1000, Y: 0}},
		VLimit: []float64{0, 0},
		PenUp:  true,
	}
	out := planner.LimitAcceleration(seg, 1.0)
	test.That(t, out.VLimit[0], test.ShouldEqual, 0.0)
	test.That(t, out.VLimit[1], test.ShouldEqual, 0.0)
}
