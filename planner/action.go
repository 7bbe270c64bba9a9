package planner

import (
	"encoding/json"
	"math"
	"time"

	"github.com/pkg/errors"
)

// Action is the closed set of atomic commands a Job is made of
// (SPEC_FULL.md §4.7). It is modeled as an interface with an unexported
// marker method rather than a reflection-driven variant, matching the
// teacher's node/move interface-plus-concrete-struct idiom in motionplan.
type Action interface {
	// Time returns the wall-clock duration this action takes to execute.
	Time() time.Duration
	action()
}

// PenUp raises the pen and waits DelayMS for the servo to settle.
type PenUp struct {
	DelayMS uint32
}

func (PenUp) action() {}

// Time implements Action.
func (a PenUp) Time() time.Duration { return time.Duration(a.DelayMS) * time.Millisecond }

// PenDown lowers the pen and waits DelayMS for the servo to settle.
type PenDown struct {
	DelayMS uint32
}

func (PenDown) action() {}

// Time implements Action.
func (a PenDown) Time() time.Duration { return time.Duration(a.DelayMS) * time.Millisecond }

// StepMove commands a simultaneous move of M1 and M2 motor steps over
// DurationMS milliseconds.
type StepMove struct {
	M1, M2     int32
	DurationMS uint32
}

func (StepMove) action() {}

// Time implements Action.
func (a StepMove) Time() time.Duration { return time.Duration(a.DurationMS) * time.Millisecond }

// NewStepMove validates and constructs a StepMove, enforcing the
// construction invariants from SPEC_FULL.md §4.7: nonzero delta, and a
// duration of at least MinMoveMS and at most 2^24-1 ms.
func NewStepMove(m1, m2 int32, durationMS uint32) (StepMove, error) {
	if m1 == 0 && m2 == 0 {
		return StepMove{}, errors.New("plan invariant violated: StepMove with zero delta")
	}
	if durationMS < MinMoveMS {
		return StepMove{}, errors.Errorf("plan invariant violated: StepMove duration %dms below floor %dms", durationMS, MinMoveMS)
	}
	if durationMS > 1<<24-1 {
		return StepMove{}, errors.Errorf("plan invariant violated: StepMove duration %dms above ceiling %dms", durationMS, 1<<24-1)
	}
	return StepMove{M1: m1, M2: m2, DurationMS: durationMS}, nil
}

// DocDelta returns the document-basis (dx, dy) this move implies.
func (a StepMove) DocDelta() (dx, dy int32) {
	return docBasis(a.M1, a.M2)
}

// Job is the full persisted/transported unit of work: an ordered action
// list plus the pen/servo parameters used to derive pen delays.
type Job struct {
	Filename     string
	Document     string
	PenUpPos     float64
	PenDownPos   float64
	ServoSpeed   float64
	Actions      []Action
}

// Duration sums every action's Time(), matching SPEC_FULL.md §8 invariant 5.
func (j Job) Duration() time.Duration {
	var total time.Duration
	for _, a := range j.Actions {
		total += a.Time()
	}
	return total
}

// jobDoc is the on-wire JSON shape for a Job (SPEC_FULL.md §6).
type jobDoc struct {
	Filename      *string    `json:"filename"`
	Document      *string    `json:"document"`
	PenUpPosition float64    `json:"pen_up_position"`
	PenDownPos    float64    `json:"pen_down_position"`
	ServoSpeed    float64    `json:"servo_speed"`
	Actions       []actionDoc `json:"actions"`
}

type actionDoc struct {
	Name     string  `json:"name"`
	Delay    *uint32 `json:"delay,omitempty"`
	M1       *int32  `json:"m1,omitempty"`
	M2       *int32  `json:"m2,omitempty"`
	Duration *uint32 `json:"duration,omitempty"`
}

// MarshalJSON implements json.Marshaler, emitting the schema in
// SPEC_FULL.md §6 using a discriminated "name" field, grounded in the
// original driver's Job.serialize/type-registry pattern (axibot/job.py).
func (j Job) MarshalJSON() ([]byte, error) {
	doc := jobDoc{
		PenUpPosition: j.PenUpPos,
		PenDownPos:    j.PenDownPos,
		ServoSpeed:    j.ServoSpeed,
	}
	if j.Filename != "" {
		doc.Filename = &j.Filename
	}
	if j.Document != "" {
		doc.Document = &j.Document
	}
	doc.Actions = make([]actionDoc, len(j.Actions))
	for i, a := range j.Actions {
		ad, err := encodeAction(a)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding action %d", i)
		}
		doc.Actions[i] = ad
	}
	return json.Marshal(doc)
}

func encodeAction(a Action) (actionDoc, error) {
	switch v := a.(type) {
	case PenUp:
		delay := v.DelayMS
		return actionDoc{Name: "pen_up", Delay: &delay}, nil
	case PenDown:
		delay := v.DelayMS
		return actionDoc{Name: "pen_down", Delay: &delay}, nil
	case StepMove:
		m1, m2, dur := v.M1, v.M2, v.DurationMS
		return actionDoc{Name: "xy_move", M1: &m1, M2: &m2, Duration: &dur}, nil
	default:
		return actionDoc{}, errors.Errorf("unknown action type %T", a)
	}
}

// UnmarshalJSON implements json.Unmarshaler, the inverse of MarshalJSON,
// reconstructing the closed Action union by dispatching on "name" exactly
// as the original driver's deserialize type registry does.
func (j *Job) UnmarshalJSON(data []byte) error {
	var doc jobDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "job file malformed")
	}
	if doc.Filename != nil {
		j.Filename = *doc.Filename
	}
	if doc.Document != nil {
		j.Document = *doc.Document
	}
	j.PenUpPos = doc.PenUpPosition
	j.PenDownPos = doc.PenDownPos
	j.ServoSpeed = doc.ServoSpeed
	j.Actions = make([]Action, len(doc.Actions))
	for i, ad := range doc.Actions {
		a, err := decodeAction(ad)
		if err != nil {
			return errors.Wrapf(err, "job file malformed: action %d", i)
		}
		j.Actions[i] = a
	}
	return nil
}

func decodeAction(ad actionDoc) (Action, error) {
	switch ad.Name {
	case "pen_up":
		if ad.Delay == nil {
			return nil, errors.New("pen_up missing delay")
		}
		return PenUp{DelayMS: *ad.Delay}, nil
	case "pen_down":
		if ad.Delay == nil {
			return nil, errors.New("pen_down missing delay")
		}
		return PenDown{DelayMS: *ad.Delay}, nil
	case "xy_move":
		if ad.M1 == nil || ad.M2 == nil || ad.Duration == nil {
			return nil, errors.New("xy_move missing m1/m2/duration")
		}
		return NewStepMove(*ad.M1, *ad.M2, *ad.Duration)
	default:
		return nil, errors.Errorf("unknown action name %q", ad.Name)
	}
}

// Equal reports whether two Jobs are identical, used by the round-trip
// property test (SPEC_FULL.md §8 invariant 7) via github.com/google/go-cmp
// in tests; this method exists for non-test callers that want a cheap
// equality check without importing go-cmp.
func (j Job) Equal(o Job) bool {
	if j.Filename != o.Filename || j.Document != o.Document ||
		j.PenUpPos != o.PenUpPos || j.PenDownPos != o.PenDownPos || j.ServoSpeed != o.ServoSpeed {
		return false
	}
	if len(j.Actions) != len(o.Actions) {
		return false
	}
	for i := range j.Actions {
		if j.Actions[i] != o.Actions[i] {
			return false
		}
	}
	return true
}

// PenDelayMS derives a pen-raise/lower settle delay from the configured
// travel distance and servo speed, grounded in
// original_source/axibot/moves.py's calculate_pen_delays.
func PenDelayMS(travel, servoSpeed float64, extraMS int) uint32 {
	if servoSpeed <= 0 {
		return uint32(extraMS)
	}
	ms := int(math.Round(1000*math.Abs(travel)/servoSpeed)) + extraMS
	if ms < 0 {
		ms = 0
	}
	return uint32(ms)
}
