// Package config holds the tunable machine constants that parameterize the
// planner, driver, and device adapter. They are exposed through viper so a
// deployment can override any of them via a config file or a PLOTTERD_
// env var.
package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config carries every tunable constant the planner, driver, and device
// adapter need. Distances are in inches unless noted; speeds are in
// steps/sec, and VMaxStepsPerMS/AMaxStepsPerMS2 convert them to the
// per-ms units the planner works in.
type Config struct {
	// StepsPerInch is the motor resolution used by the Step Quantizer.
	StepsPerInch float64 `mapstructure:"steps_per_inch"`

	// MaxRetries bounds how many empty reads the device adapter tolerates
	// before giving up on a single command/response round trip.
	MaxRetries int `mapstructure:"max_retries"`

	// ReadTimeout bounds a single blocking read from the device.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// ServoMin/ServoMax are the raw servo PWM endpoints (pen-down/pen-up
	// travel limits), and ServoSpeed is the configured slew rate used to
	// derive pen delays.
	ServoMin   int `mapstructure:"servo_min"`
	ServoMax   int `mapstructure:"servo_max"`
	ServoSpeed int `mapstructure:"servo_speed"`

	// ExtraPenUpDelayMS/ExtraPenDownDelayMS pad the derived pen delay to
	// compensate for mechanical settle time beyond the servo's own slew.
	ExtraPenUpDelayMS   int `mapstructure:"extra_pen_up_delay_ms"`
	ExtraPenDownDelayMS int `mapstructure:"extra_pen_down_delay_ms"`

	// SpeedScale is the top-level unit speed (steps/sec) from which the
	// pen-up/pen-down ceilings below are derived as fractions.
	SpeedScale float64 `mapstructure:"speed_scale"`

	// AccelTimePenDown/AccelTimePenUp are the time (seconds) to reach
	// VMaxPenDown/VMaxPenUp from a stop; used to derive AMax.
	AccelTimePenDown float64 `mapstructure:"accel_time_pen_down"`
	AccelTimePenUp   float64 `mapstructure:"accel_time_pen_up"`

	// SpeedPenDown/SpeedPenUp are the configured ceiling speeds (steps/sec).
	SpeedPenDown float64 `mapstructure:"speed_pen_down"`
	SpeedPenUp   float64 `mapstructure:"speed_pen_up"`

	// ShortThresholdInches is the transit-length cutoff below which Plan
	// plans a pen-up transit under the pen-down speed/accel ceilings
	// instead of the pen-up ones.
	ShortThresholdInches float64 `mapstructure:"short_threshold_inches"`

	// TimeSlice is the profile-slicing step (30ms by default). The minimum
	// StepMove duration is the separate planner.MinMoveMS constant, which
	// does not follow this setting.
	TimeSlice time.Duration `mapstructure:"time_slice"`

	// Smoothness and Cornering are retained tuning knobs from the original
	// driver though this implementation's cornering formula (§4.3 of the
	// expanded spec) no longer consumes Cornering directly; kept so an
	// operator's existing config file round-trips without error.
	Smoothness float64 `mapstructure:"smoothness"`
	Cornering  float64 `mapstructure:"cornering"`

	// MinGapInches is loaded and carried in Config, but no planner stage
	// reads it: short transits are planned like any other and disappear
	// only when the Step Quantizer collapses them.
	MinGapInches float64 `mapstructure:"min_gap_inches"`

	// MinStepRate suppresses per-axis step rates below this threshold
	// (steps/ms) to avoid emitting phantom drift moves.
	MinStepRate float64 `mapstructure:"min_step_rate"`

	// DefaultMicrostepResolution is the EnableMotors resolution the CLI and
	// control service request at startup; 1 selects 16x microstepping,
	// matching StepsPerInch's DPI_16X default.
	DefaultMicrostepResolution int `mapstructure:"default_microstep_resolution"`
}

// Default returns the canonical constants, ported from the original
// plotter driver's config module.
func Default() Config {
	const speedScale = 24950.0 // steps/sec
	return Config{
		StepsPerInch:         2032, // DPI_16X
		MaxRetries:           100,
		ReadTimeout:          time.Second,
		ServoMin:             7500,
		ServoMax:             28000,
		ServoSpeed:           150,
		ExtraPenUpDelayMS:    0,
		ExtraPenDownDelayMS:  0,
		SpeedScale:           speedScale,
		AccelTimePenDown:     0.25,
		AccelTimePenUp:       1.0,
		SpeedPenDown:         0.25 * speedScale,
		SpeedPenUp:           0.75 * speedScale,
		ShortThresholdInches: 1.0,
		TimeSlice:            30 * time.Millisecond,
		Smoothness:           1.0,
		Cornering:            0.01,
		MinGapInches:         0.010,
		MinStepRate:          0.002,
		DefaultMicrostepResolution: 1,
	}
}

// VMaxStepsPerMS returns the configured ceiling velocity in steps/ms for
// the given pen state, already converted from the configured steps/sec.
func (c Config) VMaxStepsPerMS(penDown bool) float64 {
	if penDown {
		return c.SpeedPenDown / 1000
	}
	return c.SpeedPenUp / 1000
}

// AMaxStepsPerMS2 returns the configured acceleration ceiling in
// steps/ms^2 for the given pen state: VMax / AccelTime, converted to the
// same per-ms units as VMaxStepsPerMS.
func (c Config) AMaxStepsPerMS2(penDown bool) float64 {
	accelTime := c.AccelTimePenUp
	if penDown {
		accelTime = c.AccelTimePenDown
	}
	// accelTime is in seconds; VMax is steps/ms, so convert accelTime to ms.
	return c.VMaxStepsPerMS(penDown) / (accelTime * 1000)
}

// Load reads configuration from the given file path (if non-empty),
// environment variables prefixed PLOTTERD_, and finally Default() as the
// floor, using viper's layered-source resolution the way the pack's
// tabular-data service configures itself.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PLOTTERD")
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("steps_per_inch", def.StepsPerInch)
	v.SetDefault("max_retries", def.MaxRetries)
	v.SetDefault("read_timeout", def.ReadTimeout)
	v.SetDefault("servo_min", def.ServoMin)
	v.SetDefault("servo_max", def.ServoMax)
	v.SetDefault("servo_speed", def.ServoSpeed)
	v.SetDefault("extra_pen_up_delay_ms", def.ExtraPenUpDelayMS)
	v.SetDefault("extra_pen_down_delay_ms", def.ExtraPenDownDelayMS)
	v.SetDefault("speed_scale", def.SpeedScale)
	v.SetDefault("accel_time_pen_down", def.AccelTimePenDown)
	v.SetDefault("accel_time_pen_up", def.AccelTimePenUp)
	v.SetDefault("speed_pen_down", def.SpeedPenDown)
	v.SetDefault("speed_pen_up", def.SpeedPenUp)
	v.SetDefault("short_threshold_inches", def.ShortThresholdInches)
	v.SetDefault("time_slice", def.TimeSlice)
	v.SetDefault("smoothness", def.Smoothness)
	v.SetDefault("cornering", def.Cornering)
	v.SetDefault("min_gap_inches", def.MinGapInches)
	v.SetDefault("min_step_rate", def.MinStepRate)
	v.SetDefault("default_microstep_resolution", def.DefaultMicrostepResolution)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "reading config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "unmarshaling config")
	}
	return cfg, nil
}
