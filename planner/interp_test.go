package planner_test

import (
	"testing"

	"go.viam.com/test"

	"go.inkdrive.dev/plotterd/planner"
)

func sumSlices(t *testing.T, slices []planner.Slice) (lastDist, totalDur float64) {
	t.Helper()
	if len(slices) == 0 {
		return 0, 0
	}
	for _, s := range slices {
		totalDur += s.DurationMS
	}
	return slices[len(slices)-1].CumulativeDistance, totalDur
}

// Scenario A (SPEC_FULL.md §8): pure-X trapezoid.
func TestInterpolateTrapezoid(t *testing.T) {
	dist := 4064.0
	vMax := 10.0
	aMax := 0.5
	slices := planner.Interpolate(dist, 0, 0, vMax, aMax, 30)
	test.That(t, len(slices), test.ShouldBeGreaterThan, 2)
	last, _ := sumSlices(t, slices)
	test.That(t, last, test.ShouldAlmostEqual, dist, 1e-6)
}

// Scenario B (SPEC_FULL.md §8): triangular long pen-up move.
func TestInterpolateTriangle(t *testing.T) {
	dist := 15438.1 // hypot(9079-1032, 15167-1992)
	vMax := 18.7
	aMax := 0.0187
	slices := planner.Interpolate(dist, 0, 0, vMax, aMax, 30)
	test.That(t, len(slices), test.ShouldBeGreaterThan, 0)
	last, _ := sumSlices(t, slices)
	test.That(t, last, test.ShouldAlmostEqual, dist, 1e-6)
}

// Scenario C (SPEC_FULL.md §8): short linear segment with distinct speeds.
func TestInterpolateLinearShort(t *testing.T) {
	vA := 0.240 * 24950.0 / 1000
	vB := 0.248 * 24950.0 / 1000
	dist := 234.3 // hypot(4680-4500, 5050-5200)
	slices := planner.Interpolate(dist, vA, vB, 18.7, 0.0187, 30)
	test.That(t, len(slices), test.ShouldBeGreaterThan, 0)
	test.That(t, len(slices), test.ShouldBeLessThanOrEqualTo, 10)
}

func TestInterpolateConstant(t *testing.T) {
	slices := planner.Interpolate(100, 5, 5, 10, 1, 30)
	test.That(t, slices, test.ShouldHaveLength, 1)
	test.That(t, slices[0].CumulativeDistance, test.ShouldEqual, 100.0)
}

func TestInterpolateStoppedShort(t *testing.T) {
	slices := planner.Interpolate(5, 0, 0, 10, 1, 30)
	test.That(t, slices, test.ShouldHaveLength, 1)
	test.That(t, slices[0].DurationMS, test.ShouldEqual, 100.0)
}
