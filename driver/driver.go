// Package driver implements the Driver State Machine described in
// SPEC_FULL.md §4.8/§5: a single goroutine owns all mutable plotting
// state and consumes Job actions one at a time against a device.Device,
// communicating with the outside world only through command and event
// channels — never a mutex guarding the dispatch decision itself,
// following the spec's explicit preference over the teacher
// kinematic-base component's inputLock pattern. A small mutex does guard
// the read-only DriverState snapshot exposed to observers, matching the
// narrower case SPEC_FULL.md §9 calls out as acceptable.
package driver

import (
	"sync"
	"time"

	"go.inkdrive.dev/plotterd/config"
	"go.inkdrive.dev/plotterd/device"
	"go.inkdrive.dev/plotterd/logging"
	"go.inkdrive.dev/plotterd/planner"
)

// Phase is one of the Driver's three (plus Paused, a supplement) states.
type Phase int

const (
	Idle Phase = iota
	Plotting
	Paused
	Canceling
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Plotting:
		return "plotting"
	case Paused:
		return "paused"
	case Canceling:
		return "canceling"
	default:
		return "unknown"
	}
}

// State is a read-only snapshot of the Driver's bookkeeping.
type State struct {
	Phase       Phase
	Position    planner.StepPoint
	PenUp       *bool
	ActionIndex int
	ConsumedMS  uint64
	TotalMS     uint64
}

// Event is the closed set of notifications the Driver emits.
type Event interface{ event() }

// StateChanged is emitted after every action's bookkeeping update.
type StateChanged struct{ State State }

func (StateChanged) event() {}

// Completed is emitted when a job finishes (successfully or via cancel).
type Completed struct {
	Estimated time.Duration
	Actual    time.Duration
}

func (Completed) event() {}

// ErrorEvent is emitted when dispatch fails unrecoverably.
type ErrorEvent struct{ Err error }

func (ErrorEvent) event() {}

type command struct {
	kind reqKind
	job  planner.Job
	done chan error
}

type reqKind int

const (
	reqStart reqKind = iota
	reqCancel
	reqPause
	reqResume
	reqManualPenUp
	reqManualPenDown
)

// Driver runs the action-dispatch loop. Construct with New and start the
// loop with Run in its own goroutine.
type Driver struct {
	dev    device.Device
	cfg    config.Config
	logger logging.Logger

	cmdCh chan command

	subMu sync.Mutex
	subs  map[chan Event]struct{}

	stateMu sync.RWMutex
	state   State
}

// New constructs a Driver. Call Run in its own goroutine before issuing
// any commands.
func New(dev device.Device, cfg config.Config, logger logging.Logger) *Driver {
	return &Driver{
		dev:    dev,
		cfg:    cfg,
		logger: logger,
		cmdCh:  make(chan command, 1),
		subs:   make(map[chan Event]struct{}),
		state:  State{Phase: Idle},
	}
}

// Subscribe registers a new subscriber and returns its event channel
// plus an unsubscribe function the caller must call when done listening
// (SPEC_FULL.md §5 "Subscriber set: mutated only on connect/disconnect").
// Each subscriber gets its own buffered channel (capacity 16) and receives
// events in emission order, independent of how many other subscribers are
// connected — the fan-out multiple simultaneous /ws clients need. An event
// emitted while a subscriber's buffer is full is dropped for that
// subscriber (see emit).
func (d *Driver) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	d.subMu.Lock()
	d.subs[ch] = struct{}{}
	d.subMu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			d.subMu.Lock()
			delete(d.subs, ch)
			d.subMu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Events returns a single subscriber channel, for callers (like the CLI)
// that only ever need one consumer for the process lifetime and don't
// need to unsubscribe. Equivalent to the first return value of Subscribe.
func (d *Driver) Events() <-chan Event {
	ch, _ := d.Subscribe()
	return ch
}

// Snapshot returns the current DriverState, guarded by a narrow mutex as
// SPEC_FULL.md §9 allows for read-only observer access.
func (d *Driver) Snapshot() State {
	d.stateMu.RLock()
	defer d.stateMu.RUnlock()
	return d.state
}

func (d *Driver) setState(s State) {
	d.stateMu.Lock()
	d.state = s
	d.stateMu.Unlock()
}

// emit fans e out to every currently-registered subscriber. It takes a
// stable snapshot of the subscriber set under subMu (SPEC_FULL.md §5)
// and then sends outside the lock, so a slow subscriber's full buffer
// only drops that subscriber's copy of e, never blocks emit or starves
// other subscribers.
func (d *Driver) emit(e Event) {
	d.subMu.Lock()
	chans := make([]chan Event, 0, len(d.subs))
	for ch := range d.subs {
		chans = append(chans, ch)
	}
	d.subMu.Unlock()

	for _, ch := range chans {
		select {
		case ch <- e:
		default:
			d.logger.Warnf("event channel full, dropping %T for a subscriber", e)
		}
	}
}

func (d *Driver) send(kind reqKind, job planner.Job) error {
	done := make(chan error, 1)
	d.cmdCh <- command{kind: kind, job: job, done: done}
	return <-done
}

// Start loads job and transitions Idle -> Plotting.
func (d *Driver) Start(job planner.Job) error { return d.send(reqStart, job) }

// Cancel requests a transition to Canceling; observed at the next
// suspension point (SPEC_FULL.md §5 "Cancellation semantics").
func (d *Driver) Cancel() error { return d.send(reqCancel, planner.Job{}) }

// Pause requests a transition to Paused (SPEC_FULL.md §4.8 supplement).
func (d *Driver) Pause() error { return d.send(reqPause, planner.Job{}) }

// Resume requests a transition back to Plotting from Paused, continuing
// at the same action index.
func (d *Driver) Resume() error { return d.send(reqResume, planner.Job{}) }

// ManualPenUp dispatches a single PenUp action; only valid in Idle.
func (d *Driver) ManualPenUp(delay time.Duration) error { return d.send(reqManualPenUp, planner.Job{Actions: []planner.Action{planner.PenUp{DelayMS: uint32(delay.Milliseconds())}}}) }

// ManualPenDown dispatches a single PenDown action; only valid in Idle.
func (d *Driver) ManualPenDown(delay time.Duration) error {
	return d.send(reqManualPenDown, planner.Job{Actions: []planner.Action{planner.PenDown{DelayMS: uint32(delay.Milliseconds())}}})
}
