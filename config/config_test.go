package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.inkdrive.dev/plotterd/config"
)

func TestDefaultMatchesOriginalConstants(t *testing.T) {
	def := config.Default()
	test.That(t, def.StepsPerInch, test.ShouldEqual, 2032.0)
	test.That(t, def.MaxRetries, test.ShouldEqual, 100)
	test.That(t, def.ServoMin, test.ShouldEqual, 7500)
	test.That(t, def.ServoMax, test.ShouldEqual, 28000)
	test.That(t, def.ServoSpeed, test.ShouldEqual, 150)
	test.That(t, def.SpeedScale, test.ShouldEqual, 24950.0)
	test.That(t, def.SpeedPenDown, test.ShouldEqual, 0.25*24950.0)
	test.That(t, def.SpeedPenUp, test.ShouldEqual, 0.75*24950.0)
	test.That(t, def.ShortThresholdInches, test.ShouldEqual, 1.0)
}

func TestVMaxAndAMaxDerivation(t *testing.T) {
	def := config.Default()
	test.That(t, def.VMaxStepsPerMS(true), test.ShouldEqual, def.SpeedPenDown/1000)
	test.That(t, def.VMaxStepsPerMS(false), test.ShouldEqual, def.SpeedPenUp/1000)

	aMaxDown := def.AMaxStepsPerMS2(true)
	test.That(t, aMaxDown, test.ShouldBeGreaterThan, 0)
	aMaxUp := def.AMaxStepsPerMS2(false)
	test.That(t, aMaxUp, test.ShouldBeGreaterThan, 0)
}

func TestLoadWithoutFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.StepsPerInch, test.ShouldEqual, config.Default().StepsPerInch)
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plotterd.yaml")
	contents := "steps_per_inch: 1000\nservo_speed: 200\n"
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)

	cfg, err := config.Load(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.StepsPerInch, test.ShouldEqual, 1000.0)
	test.That(t, cfg.ServoSpeed, test.ShouldEqual, 200)
	// Unset fields still fall back to their documented defaults.
	test.That(t, cfg.MaxRetries, test.ShouldEqual, config.Default().MaxRetries)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plotterd.yaml")
	test.That(t, os.WriteFile(path, []byte("not: [valid"), 0o600), test.ShouldBeNil)

	_, err := config.Load(path)
	test.That(t, err, test.ShouldNotBeNil)
}
