package planner_test

import (
	"testing"

	"go.viam.com/test"

	"go.inkdrive.dev/plotterd/planner"
)

func TestInsertTransitsAlternatesPenState(t *testing.T) {
	paths := []planner.Polyline{
		{{X: 1, Y: 1}, {X: 2, Y: 2}},
		{{X: 5, Y: 5}, {X: 6, Y: 6}},
	}
	segs := planner.InsertTransits(paths)
	test.That(t, segs, test.ShouldHaveLength, 5)
	for i, seg := range segs {
		wantPenUp := i%2 == 0
		test.That(t, seg.PenUp, test.ShouldEqual, wantPenUp)
	}
}

func TestInsertTransitsStartsAndEndsAtOrigin(t *testing.T) {
	paths := []planner.Polyline{{{X: 3, Y: 4}, {X: 5, Y: 6}}}
	segs := planner.InsertTransits(paths)
	test.That(t, segs, test.ShouldHaveLength, 3)
	test.That(t, segs[0].Points[0], test.ShouldResemble, planner.Origin)
	test.That(t, segs[0].Points[len(segs[0].Points)-1], test.ShouldResemble, paths[0][0])
	last := segs[len(segs)-1]
	test.That(t, last.Points[len(last.Points)-1], test.ShouldResemble, planner.Origin)
}
