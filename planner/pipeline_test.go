package planner_test

import (
	"testing"

	"go.viam.com/test"

	"go.inkdrive.dev/plotterd/config"
	"go.inkdrive.dev/plotterd/planner"
)

func simulatePosition(t *testing.T, job planner.Job) (x, y int32) {
	t.Helper()
	for _, a := range job.Actions {
		if sm, ok := a.(planner.StepMove); ok {
			dx, dy := sm.DocDelta()
			x += dx
			y += dy
		}
	}
	return x, y
}

// Invariant 6 (SPEC_FULL.md §8): simulating the full action stream from
// (0,0) always returns to the origin, since every job is bookended by a
// transit to/from (0,0).
func TestPlanReturnsToOrigin(t *testing.T) {
	cfg := config.Default()
	paths := []planner.Polyline{
		{{X: 1, Y: 1}, {X: 2, Y: 1.5}, {X: 2, Y: 3}},
		{{X: 0.5, Y: 0.5}, {X: 1.5, Y: 0.2}},
	}
	job, err := planner.Plan(paths, cfg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(job.Actions), test.ShouldBeGreaterThan, 0)

	x, y := simulatePosition(t, job)
	test.That(t, x, test.ShouldEqual, int32(0))
	test.That(t, y, test.ShouldEqual, int32(0))
}

// Round-trip/idempotence (SPEC_FULL.md §8): planning identical input
// twice produces an identical Job, since the pipeline is deterministic.
func TestPlanIsDeterministic(t *testing.T) {
	cfg := config.Default()
	paths := []planner.Polyline{{{X: 1, Y: 1}, {X: 4, Y: 4}}}

	job1, err := planner.Plan(paths, cfg)
	test.That(t, err, test.ShouldBeNil)
	job2, err := planner.Plan(paths, cfg)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, job1.Equal(job2), test.ShouldBeTrue)
}

func TestPlanEmptyInputStillTransitsToOrigin(t *testing.T) {
	cfg := config.Default()
	job, err := planner.Plan(nil, cfg)
	test.That(t, err, test.ShouldBeNil)
	x, y := simulatePosition(t, job)
	test.That(t, x, test.ShouldEqual, int32(0))
	test.That(t, y, test.ShouldEqual, int32(0))
}
