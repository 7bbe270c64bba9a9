package planner

import (
	"math"

	"github.com/pkg/errors"
)

// EmitActions implements the Action Emitter (SPEC_FULL.md §4.6): it walks
// a PlannedSegment's vertex pairs, interpolates each pair's velocity
// profile, and converts the resulting slices into motor-basis StepMove
// actions, applying the distribution-correction rescale and micro-drift
// suppression the spec requires.
func EmitActions(seg PlannedSegment, vMax, aMax, timeSliceMS, minStepRate float64) ([]Action, error) {
	var actions []Action
	for i := 0; i+1 < len(seg.Points); i++ {
		pa, pb := seg.Points[i], seg.Points[i+1]
		vA, vB := seg.VLimit[i], seg.VLimit[i+1]
		dist := distance(pa, pb)
		if dist == 0 {
			continue
		}
		slices := Interpolate(dist, vA, vB, vMax, aMax, timeSliceMS)
		pairActions, err := emitPair(pa, pb, dist, slices, minStepRate)
		if err != nil {
			return nil, errors.Wrapf(err, "emitting pair %d->%d", i, i+1)
		}
		actions = append(actions, pairActions...)
	}
	return actions, nil
}

func emitPair(pa, pb StepPoint, dist float64, slices []Slice, minStepRate float64) ([]Action, error) {
	if len(slices) == 0 {
		return nil, nil
	}
	ux := float64(pb.X-pa.X) / dist
	uy := float64(pb.Y-pa.Y) / dist

	type rawSlice struct {
		x, y       int32
		durationMS float64
	}
	raw := make([]rawSlice, len(slices))
	for i, s := range slices {
		raw[i] = rawSlice{
			x:          RoundHalfAwayFromZero(ux * s.CumulativeDistance),
			y:          RoundHalfAwayFromZero(uy * s.CumulativeDistance),
			durationMS: s.DurationMS,
		}
	}

	// Distribution-correction rescale (SPEC_FULL.md §4.6 step 3): force the
	// final cumulative integer delta to exactly match pb-pa.
	wantDX := pb.X - pa.X
	wantDY := pb.Y - pa.Y
	gotDX := raw[len(raw)-1].x
	gotDY := raw[len(raw)-1].y
	for i := range raw {
		if gotDX != 0 {
			raw[i].x = int32(math.Round(float64(raw[i].x) * float64(wantDX) / float64(gotDX)))
		}
		if gotDY != 0 {
			raw[i].y = int32(math.Round(float64(raw[i].y) * float64(wantDY) / float64(gotDY)))
		}
	}
	// Guarantee the exact final delta even after independent rounding above.
	raw[len(raw)-1].x = wantDX
	raw[len(raw)-1].y = wantDY

	actions := make([]Action, 0, len(raw))
	prevX, prevY := int32(0), int32(0)
	for _, s := range raw {
		dx := s.x - prevX
		dy := s.y - prevY
		prevX, prevY = s.x, s.y

		durMS := uint32(math.Ceil(s.durationMS))
		if durMS < MinMoveMS {
			durMS = MinMoveMS
		}

		// Micro-drift suppression (SPEC_FULL.md §4.6 step 5).
		if math.Abs(float64(dx))/float64(durMS) < minStepRate {
			dx = 0
		}
		if math.Abs(float64(dy))/float64(durMS) < minStepRate {
			dy = 0
		}

		m1, m2 := motorBasis(dx, dy)
		if m1 == 0 && m2 == 0 {
			continue
		}
		move, err := NewStepMove(m1, m2, durMS)
		if err != nil {
			return nil, err
		}
		actions = append(actions, move)
	}
	return actions, nil
}
