package driver

import (
	"math"

	"go.inkdrive.dev/plotterd/planner"
)

// planCancelActions builds the return-to-origin sub-plan (SPEC_FULL.md
// §4.8): derive the in-flight velocity vector and plan a deceleration
// segment to rest along it, raise the pen if it's down, then transit to
// the origin with both endpoint speeds pinned to zero. Grounded in
// original_source/axibot/server/plotting.py's plan_deceleration +
// cancel_to_origin, unlike that Python's disabled plan_deceleration call
// (SPEC_FULL.md §4.8 restates the full 5-step sub-plan as required).
func (d *Driver) planCancelActions(job planner.Job, actionIndex int, snap State) ([]planner.Action, error) {
	penDown := snap.PenUp != nil && !*snap.PenUp
	curVMax := d.cfg.VMaxStepsPerMS(penDown)
	curAMax := d.cfg.AMaxStepsPerMS2(penDown)
	penUpVMax := d.cfg.VMaxStepsPerMS(false)
	penUpAMax := d.cfg.AMaxStepsPerMS2(false)

	vx, vy := inFlightVelocity(job, actionIndex, curVMax)
	d.logger.Debugf("cancel: in-flight velocity (%.4f, %.4f) steps/ms, pen down=%v", vx, vy, penDown)

	decelActions, position, err := decelerationLeg(snap.Position, vx, vy, curAMax, penDown)
	if err != nil {
		return nil, err
	}

	var actions []planner.Action
	actions = append(actions, decelActions...)

	penUpDelay := planner.PenDelayMS(job.PenUpPos-job.PenDownPos, job.ServoSpeed, 0)
	if penDown {
		actions = append(actions, planner.PenUp{DelayMS: penUpDelay})
	}

	transitActions, err := transitToOrigin(position, penUpVMax, penUpAMax)
	if err != nil {
		return nil, err
	}
	return append(actions, transitActions...), nil
}

// inFlightVelocity estimates the carriage's velocity vector (document-
// basis steps/ms) from the action that was just dispatched, falling back
// to (0,0) when there is no usable in-flight StepMove (e.g. cancel issued
// between segments). The magnitude is clamped to vMax.
func inFlightVelocity(job planner.Job, actionIndex int, vMax float64) (vx, vy float64) {
	if actionIndex <= 0 || actionIndex > len(job.Actions) {
		return 0, 0
	}
	last := job.Actions[actionIndex-1]
	sm, ok := last.(planner.StepMove)
	if !ok || sm.DurationMS == 0 {
		return 0, 0
	}
	dx, dy := sm.DocDelta()
	vx = float64(dx) / float64(sm.DurationMS)
	vy = float64(dy) / float64(sm.DurationMS)
	if speed := math.Hypot(vx, vy); speed > vMax && speed > 0 {
		scale := vMax / speed
		vx *= scale
		vy *= scale
	}
	return vx, vy
}

// decelerationLeg implements SPEC_FULL.md §4.8 cancel steps 1-2: plan a
// deceleration segment from position along the in-flight velocity vector
// to rest, under aMax, reusing §4.5's linear/triangular Interpolate cases
// via EmitActions rather than re-deriving profile math. Returns the
// (possibly unchanged) carriage position the next leg of the sub-plan
// should start from.
func decelerationLeg(position planner.StepPoint, vx, vy, aMax float64, penDown bool) ([]planner.Action, planner.StepPoint, error) {
	speed := math.Hypot(vx, vy)
	if speed <= 0 || aMax <= 0 {
		return nil, position, nil
	}

	dist := speed * speed / (2 * aMax)
	ux, uy := vx/speed, vy/speed
	end := planner.StepPoint{
		X: position.X + planner.RoundHalfAwayFromZero(ux*dist),
		Y: position.Y + planner.RoundHalfAwayFromZero(uy*dist),
	}
	if end.Equal(position) {
		return nil, position, nil
	}

	seg := planner.PlannedSegment{
		Points: []planner.StepPoint{position, end},
		VLimit: []float64{speed, 0},
		PenUp:  !penDown,
	}
	const timeSliceMS = 30.0
	actions, err := planner.EmitActions(seg, speed, aMax, timeSliceMS, 0.002)
	if err != nil {
		return nil, position, err
	}
	return actions, end, nil
}

// transitToOrigin plans a pen-up move from position back to (0,0) with
// both endpoint speeds pinned to zero (SPEC_FULL.md §4.8 step 4).
func transitToOrigin(position planner.StepPoint, vMax, aMax float64) ([]planner.Action, error) {
	seg := planner.QuantizedSegment{
		Points: []planner.StepPoint{position, {X: 0, Y: 0}},
		PenUp:  true,
	}
	if position.X == 0 && position.Y == 0 {
		return nil, nil
	}
	planned := planner.LimitCorners(seg, vMax)
	planned = planner.LimitAcceleration(planned, aMax)
	const timeSliceMS = 30.0
	return planner.EmitActions(planned, vMax, aMax, timeSliceMS, 0.002)
}
