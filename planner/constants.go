package planner

import "time"

// Duration floors/ceilings for short-segment interpolation fallbacks
// (SPEC_FULL.md §4.5, §9 "Open questions").
const (
	// MinMoveMS is the minimum duration of any emitted StepMove or the
	// slice duration the interpolator will ever produce.
	MinMoveMS = 30

	// MaxFallbackMoveMS caps the single-slice fallback used by the Linear
	// case when a segment is too short to fit even one TimeSlice quantum.
	MaxFallbackMoveMS = 200

	// stoppedShortMoveMS is the fixed duration used for the
	// zero-velocity, short-segment case (SPEC_FULL.md §4.5 "Stopped-Short").
	stoppedShortMoveMS = 100
)

// defaultTimeSlice mirrors config.Default().TimeSlice. Nothing references
// it; planner code always takes the value from the Config it's given.
const defaultTimeSlice = 30 * time.Millisecond
