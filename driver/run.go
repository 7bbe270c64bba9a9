package driver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.inkdrive.dev/plotterd/planner"
)

// Run drives the action-dispatch loop until ctx is canceled. It must run
// in its own goroutine (the caller typically uses
// go.viam.com/utils.PanicCapturingGo, matching the teacher's planner
// background-runner convention). A panic here is emitted as an
// ErrorEvent and then re-raised, so that helper logs it rather than
// letting it crash the process.
func (d *Driver) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			d.emit(ErrorEvent{Err: fmt.Errorf("driver: panic in dispatch loop: %v", r)})
			panic(r)
		}
	}()

	var job planner.Job
	actionIndex := 0
	phase := Idle
	started := false
	var jobStart time.Time

	for {
		if ctx.Err() != nil {
			return
		}
		if s := d.Snapshot(); s.Phase != phase {
			s.Phase = phase
			d.setState(s)
		}

		switch phase {
		case Idle, Paused:
			select {
			case <-ctx.Done():
				return
			case cmd := <-d.cmdCh:
				phase = d.handleCommand(ctx, cmd, &job, &actionIndex, phase)
			}
			continue
		case Canceling:
			d.runCancelSubPlan(ctx, job, actionIndex)
			phase = Idle
			d.emit(Completed{})
			continue
		}

		// phase == Plotting: prefer draining a pending command before
		// dispatching the next action, so Cancel/Pause are observed
		// promptly at this suspension point (SPEC_FULL.md §5).
		select {
		case cmd := <-d.cmdCh:
			phase = d.handleCommand(ctx, cmd, &job, &actionIndex, phase)
			continue
		default:
		}

		if !started {
			started = true
			jobStart = time.Now()
		}

		if actionIndex >= len(job.Actions) {
			d.emit(Completed{
				Estimated: job.Duration(),
				Actual:    time.Since(jobStart),
			})
			started = false
			phase = Idle
			continue
		}

		action := job.Actions[actionIndex]
		actionIndex++
		d.applyBookkeeping(action, actionIndex)
		d.emit(StateChanged{State: d.Snapshot()})

		if err := d.dispatch(ctx, action); err != nil {
			d.emit(ErrorEvent{Err: err})
			phase = Idle
			started = false
		}
	}
}

func (d *Driver) handleCommand(ctx context.Context, cmd command, job *planner.Job, actionIndex *int, phase Phase) Phase {
	var err error
	next := phase

	switch cmd.kind {
	case reqStart:
		if phase != Idle {
			err = errNotIdle
			break
		}
		*job = cmd.job
		*actionIndex = 0
		d.setState(State{Phase: Plotting, TotalMS: uint64(cmd.job.Duration().Milliseconds())})
		next = Plotting
	case reqCancel:
		if phase != Plotting && phase != Paused {
			err = errNotPlotting
			break
		}
		next = Canceling
	case reqPause:
		if phase != Plotting {
			err = errNotPlottingOnly
			break
		}
		next = Paused
	case reqResume:
		if phase != Paused {
			err = errNotPaused
			break
		}
		next = Plotting
	case reqManualPenUp, reqManualPenDown:
		if phase != Idle {
			err = errNotIdle
			break
		}
		action := cmd.job.Actions[0]
		d.applyBookkeeping(action, *actionIndex)
		d.emit(StateChanged{State: d.Snapshot()})
		err = d.dispatch(ctx, action)
	}

	cmd.done <- err
	return next
}

// applyBookkeeping updates the Driver's snapshot state for action BEFORE
// dispatching it to the device, per SPEC_FULL.md §4.8 "Per-action loop".
// actionIndex is the DriverState.ActionIndex to record alongside it (the
// count of job actions consumed so far; callers outside the main job
// loop pass through the index unchanged).
func (d *Driver) applyBookkeeping(action planner.Action, actionIndex int) {
	s := d.Snapshot()
	s.ActionIndex = actionIndex
	switch a := action.(type) {
	case planner.PenUp:
		up := true
		s.PenUp = &up
	case planner.PenDown:
		down := false
		s.PenUp = &down
	case planner.StepMove:
		dx, dy := a.DocDelta()
		s.Position.X += dx
		s.Position.Y += dy
	}
	s.ConsumedMS += uint64(action.Time().Milliseconds())
	d.setState(s)
}

func (d *Driver) dispatch(ctx context.Context, action planner.Action) error {
	switch a := action.(type) {
	case planner.PenUp:
		return d.dev.PenUp(ctx, a.Time())
	case planner.PenDown:
		return d.dev.PenDown(ctx, a.Time())
	case planner.StepMove:
		return d.dev.Step(ctx, a.M1, a.M2, a.Time())
	default:
		return nil
	}
}

// runCancelSubPlan implements the return-to-origin sub-plan
// (SPEC_FULL.md §4.8): decelerate along the in-flight velocity vector,
// raise the pen if down, then transit back to the origin.
func (d *Driver) runCancelSubPlan(ctx context.Context, job planner.Job, actionIndex int) {
	snap := d.Snapshot()
	penDown := snap.PenUp != nil && !*snap.PenUp

	actions, err := d.planCancelActions(job, actionIndex, snap)
	if err != nil {
		d.emit(ErrorEvent{Err: err})
		return
	}

	var dispatchErr error
	for _, a := range actions {
		d.applyBookkeeping(a, actionIndex)
		d.emit(StateChanged{State: d.Snapshot()})
		if err := d.dispatch(ctx, a); err != nil {
			dispatchErr = multierr.Append(dispatchErr, err)
			break
		}
	}

	if dispatchErr != nil && penDown {
		// Best-effort: make sure the pen ends up raised even if the
		// transit itself failed partway, mirroring the teacher's
		// tryStop-style best-effort cleanup combining errors rather than
		// discarding all but one.
		if err := d.dev.PenUp(ctx, 0); err != nil {
			dispatchErr = multierr.Append(dispatchErr, err)
		}
	}
	if dispatchErr != nil {
		d.emit(ErrorEvent{Err: dispatchErr})
	}

	// Allow the cancellable wait convention used elsewhere in this
	// package even when there is nothing left to wait on, so a caller
	// canceling ctx mid-cleanup is still observed promptly.
	utils.SelectContextOrWait(ctx, 0)
}
