package planner

import "math"

// RoundHalfAwayFromZero implements the numeric-determinism convention
// pinned in SPEC_FULL.md §9: all inch→step (and other float→step)
// conversions round half away from zero rather than using the platform's
// round-to-even default. Exported so other packages deriving step
// coordinates (e.g. the driver's cancel sub-plan) share the convention.
func RoundHalfAwayFromZero(x float64) int32 {
	if x >= 0 {
		return int32(math.Floor(x + 0.5))
	}
	return int32(math.Ceil(x - 0.5))
}

// Quantize implements the Step Quantizer (SPEC_FULL.md §4.2): it rounds
// every point in a Segment to integer motor steps at the given resolution
// and drops consecutive duplicate points. Segments that collapse to fewer
// than two points are dropped entirely, since they carry no motion.
func Quantize(segments []Segment, stepsPerInch float64) []QuantizedSegment {
	out := make([]QuantizedSegment, 0, len(segments))
	for _, seg := range segments {
		points := make([]StepPoint, 0, len(seg.Points))
		for _, p := range seg.Points {
			sp := StepPoint{
				X: RoundHalfAwayFromZero(p.X * stepsPerInch),
				Y: RoundHalfAwayFromZero(p.Y * stepsPerInch),
			}
			if len(points) > 0 && points[len(points)-1].Equal(sp) {
				continue
			}
			points = append(points, sp)
		}
		if len(points) < 2 {
			continue
		}
		out = append(out, QuantizedSegment{Points: points, PenUp: seg.PenUp})
	}
	return out
}
