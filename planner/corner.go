package planner

import (
	"math"

	"github.com/golang/geo/r3"
)

// acosClampTolerance is the drift bound for the law-of-cosines angle
// derivation (SPEC_FULL.md §9 "Numeric determinism"). turnAngle does not
// consult it: it clamps the cosine argument to [-1, 1] unconditionally and
// does not check how far outside that range the argument was.
const acosClampTolerance = 2e-6

// LimitCorners implements the Corner Limiter (SPEC_FULL.md §4.3): for
// every interior vertex it derives a speed ceiling from the turn angle
// between its neighbors, using r3.Vector dot products the way the
// teacher's motion-planning code represents in-plane geometry. Endpoints
// are pinned to zero.
func LimitCorners(seg QuantizedSegment, vMax float64) PlannedSegment {
	n := len(seg.Points)
	vlimit := make([]float64, n)
	if n == 0 {
		return PlannedSegment{Points: seg.Points, VLimit: vlimit, PenUp: seg.PenUp}
	}
	vlimit[0] = 0
	vlimit[n-1] = 0
	for i := 1; i < n-1; i++ {
		a := toVector(seg.Points[i-1])
		b := toVector(seg.Points[i])
		c := toVector(seg.Points[i+1])
		ba := a.Sub(b)
		bc := c.Sub(b)
		theta := turnAngle(ba, bc)
		vlimit[i] = corneringVelocity(theta, vMax)
	}
	return PlannedSegment{Points: seg.Points, VLimit: vlimit, PenUp: seg.PenUp}
}

func toVector(p StepPoint) r3.Vector {
	return r3.Vector{X: float64(p.X), Y: float64(p.Y), Z: 0}
}

// turnAngle returns the angle in [0, π] between vectors ba and bc via the
// law of cosines, clamping the cosine argument to [-1, 1].
func turnAngle(ba, bc r3.Vector) float64 {
	naL, ncL := ba.Norm(), bc.Norm()
	if naL == 0 || ncL == 0 {
		return math.Pi
	}
	cos := ba.Dot(bc) / (naL * ncL)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}

// corneringVelocity is the formula SPEC_FULL.md §4.3 pins explicitly,
// distinct from the original driver's GRBL-style dot-product/Rfactor
// cornering derivation (original_source/axibot/planning.py):
//
//	θ < π/2: 0 (a reversal; must come to a stop)
//	θ ≥ π/2: vMax * (1 + sin(θ - π))
func corneringVelocity(theta, vMax float64) float64 {
	if theta < math.Pi/2 {
		return 0
	}
	v := vMax * (1 + math.Sin(theta-math.Pi))
	if v < 0 {
		v = 0
	}
	if v > vMax {
		v = vMax
	}
	return v
}
