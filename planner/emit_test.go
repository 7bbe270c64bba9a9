package planner_test

import (
	"testing"

	"go.viam.com/test"

	"go.inkdrive.dev/plotterd/planner"
)

// Invariant 3 (SPEC_FULL.md §8): the sum of emitted per-axis deltas for a
// pair must exactly equal the document-basis delta between its endpoints.
func TestEmitActionsExactDisplacement(t *testing.T) {
	seg := planner.PlannedSegment{
		Points: []planner.StepPoint{{X: 1247, Y: 0}, {X: 5311, Y: 0}},
		VLimit: []float64{0, 0},
		PenUp:  false,
	}
	actions, err := planner.EmitActions(seg, 10, 0.5, 30, 0.002)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(actions), test.ShouldBeGreaterThan, 0)

	var sumDX, sumDY int32
	for _, a := range actions {
		sm, ok := a.(planner.StepMove)
		test.That(t, ok, test.ShouldBeTrue)
		dx, dy := sm.DocDelta()
		sumDX += dx
		sumDY += dy
		test.That(t, sm.DurationMS, test.ShouldBeGreaterThanOrEqualTo, uint32(planner.MinMoveMS))
	}
	test.That(t, sumDX, test.ShouldEqual, int32(5311-1247))
	test.That(t, sumDY, test.ShouldEqual, int32(0))
}

// Invariant 4 (SPEC_FULL.md §8): every StepMove has a nonzero delta and a
// duration floor.
func TestEmitActionsInvariants(t *testing.T) {
	seg := planner.PlannedSegment{
		Points: []planner.StepPoint{{X: 0, Y: 0}, {X: 2000, Y: 3000}},
		VLimit: []float64{0, 0},
		PenUp:  true,
	}
	actions, err := planner.EmitActions(seg, 18.7, 0.0187, 30, 0.002)
	test.That(t, err, test.ShouldBeNil)
	for _, a := range actions {
		sm := a.(planner.StepMove)
		test.That(t, sm.M1 != 0 || sm.M2 != 0, test.ShouldBeTrue)
		test.That(t, sm.DurationMS, test.ShouldBeGreaterThanOrEqualTo, uint32(30))
	}
}
