package planner

import "math"

// Slice is one quantum of the velocity profile produced for a single
// vertex-to-vertex pair: the cumulative distance traveled since the start
// of the pair, and the duration of this slice.
type Slice struct {
	CumulativeDistance float64
	DurationMS         float64
}

// Interpolate implements the Interpolator (SPEC_FULL.md §4.5): given the
// distance between two adjacent vertices and their entry/exit speed
// ceilings, it produces a time-sliced velocity profile using whichever of
// the trapezoid/triangle/linear/constant/stopped-short cases applies.
//
// dist, vA, vB, vMax, aMax are all in steps and milliseconds (steps/ms,
// steps/ms^2). timeSliceMS is normally config.Config.TimeSlice in ms.
func Interpolate(dist, vA, vB, vMax, aMax, timeSliceMS float64) []Slice {
	if dist <= 0 {
		return nil
	}
	if aMax > 0 {
		tAcc := (vMax - vA) / aMax
		tDec := (vMax - vB) / aMax
		dAcc := vA*tAcc + 0.5*aMax*tAcc*tAcc
		dDec := vB*tDec + 0.5*aMax*tDec*tDec

		if tAcc >= 0 && tDec >= 0 && dist > dAcc+dDec+timeSliceMS*vMax {
			return trapezoid(dist, vA, vB, vMax, aMax, dAcc, dDec, tAcc, tDec, timeSliceMS)
		}

		tri := triangleParams(dist, vA, vB, aMax)
		if tri.valid && int(tri.tA/timeSliceMS)+int(tri.tB/timeSliceMS) > 4 {
			return triangleFromParams(tri, vA, vB, timeSliceMS)
		}
	}

	if vA == vB {
		if vA == 0 {
			return stoppedShort()
		}
		return constant(dist, vA)
	}
	return linear(dist, vA, vB, timeSliceMS)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func stoppedShort() []Slice {
	return []Slice{{CumulativeDistance: 0, DurationMS: stoppedShortMoveMS}}
}

func constant(dist, v float64) []Slice {
	dur := clamp(dist/v, MinMoveMS, MaxFallbackMoveMS)
	return []Slice{{CumulativeDistance: dist, DurationMS: dur}}
}

func linear(dist, vA, vB, timeSliceMS float64) []Slice {
	avg := (vA + vB) / 2
	if avg <= 0 {
		return []Slice{{CumulativeDistance: dist, DurationMS: MaxFallbackMoveMS}}
	}
	tLin := dist / avg
	n := int(tLin / timeSliceMS)
	if n <= 0 {
		return []Slice{{CumulativeDistance: dist, DurationMS: clamp(tLin, MinMoveMS, MaxFallbackMoveMS)}}
	}
	return rampSlices(vA, vB, n, timeSliceMS)
}

// rampSlices produces n equal sub-steps linearly ramping velocity from
// vStart to vEnd, each lasting timeSliceMS, accumulating distance as it
// goes (SPEC_FULL.md §4.5 trapezoid-phase slicing rule, generalized to
// any ramp). The caller's Action Emitter distribution-correction rescale
// is responsible for reconciling the approximate cumulative distance here
// with the exact vertex-to-vertex delta.
func rampSlices(vStart, vEnd float64, n int, timeSliceMS float64) []Slice {
	step := (vEnd - vStart) / float64(n+1)
	slices := make([]Slice, 0, n)
	v := vStart
	cum := 0.0
	for k := 0; k < n; k++ {
		v += step
		cum += v * timeSliceMS
		slices = append(slices, Slice{CumulativeDistance: cum, DurationMS: timeSliceMS})
	}
	return slices
}

func trapezoid(dist, vA, vB, vMax, aMax, dAcc, dDec, tAcc, tDec, timeSliceMS float64) []Slice {
	accN := int(tAcc / timeSliceMS)
	if accN < 1 && tAcc > 0 {
		accN = 1
	}
	decN := int(tDec / timeSliceMS)
	if decN < 1 && tDec > 0 {
		decN = 1
	}

	var slices []Slice
	var cum float64

	if accN > 0 {
		accSlices := rampSlices(vA, vMax, accN, timeSliceMS)
		rescaleTo(accSlices, dAcc)
		slices = append(slices, accSlices...)
		cum = dAcc
	}

	dCoast := dist - dAcc - dDec
	if dCoast < 0 {
		dCoast = 0
	}
	if dCoast > 0 && vMax > 0 {
		cum += dCoast
		slices = append(slices, Slice{CumulativeDistance: cum, DurationMS: math.Max(dCoast/vMax, MinMoveMS)})
	}

	if decN > 0 {
		decSlices := rampSlices(vMax, vB, decN, timeSliceMS)
		rescaleTo(decSlices, dDec)
		base := cum
		for i := range decSlices {
			decSlices[i].CumulativeDistance += base
		}
		slices = append(slices, decSlices...)
	}

	if len(slices) == 0 {
		return constant(dist, math.Max(vA, vB))
	}
	return slices
}

// triangleFit holds the apex-velocity triangle profile derived for a
// vertex pair: accelerate from vA to vPeak over tA, then decelerate from
// vPeak to vB over tB, covering dA and dB respectively (dA+dB == dist).
type triangleFit struct {
	tA, tB float64
	vPeak  float64
	dA, dB float64
	valid  bool
}

// triangleParams derives the apex velocity and phase split for a
// symmetric accel/decel profile spanning dist (SPEC_FULL.md §4.5
// "Triangular" case apex formula). valid is false if the apex would
// require decelerating below vB before covering the distance.
func triangleParams(dist, vA, vB, aMax float64) triangleFit {
	inner := 2*vA*vA + 2*vB*vB + 4*aMax*dist
	if inner < 0 {
		inner = 0
	}
	tA := (math.Sqrt(inner) - 2*vA) / (2 * aMax)
	if tA < 0 {
		return triangleFit{}
	}
	vPeak := vA + aMax*tA
	tB := (vPeak - vB) / aMax
	if tB < 0 {
		return triangleFit{}
	}
	dA := vA*tA + 0.5*aMax*tA*tA
	if dA > dist {
		dA = dist
	}
	dB := dist - dA
	return triangleFit{tA: tA, tB: tB, vPeak: vPeak, dA: dA, dB: dB, valid: true}
}

func triangleFromParams(fit triangleFit, vA, vB, timeSliceMS float64) []Slice {
	accN := int(fit.tA / timeSliceMS)
	if accN < 1 {
		accN = 1
	}
	slices := rampSlices(vA, fit.vPeak, accN, timeSliceMS)
	rescaleTo(slices, fit.dA)
	cum := fit.dA

	decN := int(fit.tB / timeSliceMS)
	if decN < 1 {
		decN = 1
	}
	decSlices := rampSlices(fit.vPeak, vB, decN, timeSliceMS)
	rescaleTo(decSlices, fit.dB)
	for i := range decSlices {
		decSlices[i].CumulativeDistance += cum
	}
	return append(slices, decSlices...)
}

// rescaleTo scales a ramp's cumulative distances so the final entry lands
// exactly on target, preserving the ramp's relative shape.
func rescaleTo(slices []Slice, target float64) {
	if len(slices) == 0 {
		return
	}
	last := slices[len(slices)-1].CumulativeDistance
	if last == 0 {
		return
	}
	scale := target / last
	for i := range slices {
		slices[i].CumulativeDistance *= scale
	}
}
