// Package planner implements the motion-planning pipeline described in
// SPEC_FULL.md §2 and §4: transit insertion, step quantization, corner and
// acceleration limiting, interpolation, and action emission. Each stage is
// a pure function from one owned value to the next, mirroring the
// teacher's RRT planner's stage-as-struct-method layout in
// motionplan/armplanning, generalized from arm joint configurations to
// two-axis carriage positions.
package planner

import "github.com/golang/geo/r3"

// Point is a document-basis coordinate in inches, the unit the Geometry
// Preparer and the Transit Inserter work in before quantization.
type Point struct {
	X, Y float64
}

// Vector returns p as an r3.Vector with Z pinned to 0, matching how the
// teacher's planning code represents in-plane vectors for dot-product and
// angle arithmetic.
func (p Point) Vector() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: 0}
}

func (p Point) Sub(o Point) Point {
	return Point{p.X - o.X, p.Y - o.Y}
}

func (p Point) Add(o Point) Point {
	return Point{p.X + o.X, p.Y + o.Y}
}

// StepPoint is a document-basis coordinate in integer motor steps, the
// unit everything downstream of the Step Quantizer works in.
type StepPoint struct {
	X, Y int32
}

func (p StepPoint) Sub(o StepPoint) StepPoint {
	return StepPoint{p.X - o.X, p.Y - o.Y}
}

func (p StepPoint) Equal(o StepPoint) bool {
	return p.X == o.X && p.Y == o.Y
}

// Polyline is an ordered chain of document-basis points, as supplied by
// the Geometry Preparer (or, in this repository, the pathset loader).
type Polyline []Point

// Segment is a polyline tagged with whether the pen is up or down while
// traversing it; Transit Inserter output and Step Quantizer input.
type Segment struct {
	Points []Point
	PenUp  bool
}

// QuantizedSegment is a Segment after Step Quantizer has rounded its
// points to integer motor steps and collapsed duplicate adjacent points.
type QuantizedSegment struct {
	Points []StepPoint
	PenUp  bool
}

// PlannedSegment pairs a QuantizedSegment with a per-vertex velocity
// ceiling (steps/ms), one VLimit entry per Points entry, as produced by
// the Corner Limiter and refined by the Acceleration Limiter.
type PlannedSegment struct {
	Points []StepPoint
	VLimit []float64
	PenUp  bool
}

// motorBasis rotates a document-basis delta into the two-motor coordinate
// frame: m1 = dx+dy, m2 = dx-dy (SPEC_FULL.md §3).
func motorBasis(dx, dy int32) (m1, m2 int32) {
	return dx + dy, dx - dy
}

// docBasis is the inverse of motorBasis: dx = (m1+m2)/2, dy = (m1-m2)/2.
func docBasis(m1, m2 int32) (dx, dy int32) {
	return (m1 + m2) / 2, (m1 - m2) / 2
}
