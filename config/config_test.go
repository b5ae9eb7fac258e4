package config_test

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/isochron-fw/isochron/config"
)

func TestLoad_RecognizedKeysOverrideDefaults(t *testing.T) {
	c := qt.New(t)
	src := strings.NewReader(strings.Join([]string{
		"MOTOR_TYPE=dc",
		"DC_PWM_FREQ_HZ=20000",
		"UI_RPM_STEP=10",
		"heater.main.max_temp_c=60",
		"heater.main.mode=pid",
		"jar.jar1.position=2",
		"jar.jar1.heater_name=main",
	}, "\n"))

	cfg, err := config.Load(src)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Machine.MotorType, qt.Equals, config.DC)
	c.Assert(cfg.Motor.DC.PWMFreqHz, qt.Equals, 20000)
	c.Assert(cfg.UI.RPMStep, qt.Equals, 10.0)
	c.Assert(cfg.Heaters["main"].MaxTempC, qt.Equals, 60.0)
	c.Assert(cfg.Heaters["main"].Mode, qt.Equals, "pid")
	c.Assert(cfg.Jars["jar1"].Position, qt.Equals, 2)
	c.Assert(cfg.Jars["jar1"].HeaterName, qt.Equals, "main")
}

func TestLoad_UnknownKeyIgnoredNotFatal(t *testing.T) {
	c := qt.New(t)
	src := strings.NewReader("SOME_FUTURE_KEY=123\nMOTOR_TYPE=stepper\n")
	cfg, err := config.Load(src)
	c.Assert(err, qt.IsNotNil, qt.Commentf("unknown keys are reported but never fatal"))
	c.Assert(cfg.Machine.MotorType, qt.Equals, config.Stepper)
}

func TestLoad_InvalidValueFallsBackToDefault(t *testing.T) {
	c := qt.New(t)
	def := config.Default()
	src := strings.NewReader("STEPPER_MICROSTEPS=not-a-number\n")
	cfg, err := config.Load(src)
	c.Assert(err, qt.IsNotNil)
	c.Assert(cfg.Motor.Stepper.Microsteps, qt.Equals, def.Motor.Stepper.Microsteps)
}

func TestLoad_EmptyInputYieldsDefaults(t *testing.T) {
	c := qt.New(t)
	def := config.Default()
	cfg, err := config.Load(strings.NewReader(""))
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.DeepEquals, def)
}

func TestLoad_CommentsAndBlankLinesSkipped(t *testing.T) {
	c := qt.New(t)
	src := strings.NewReader("# a comment\n\nMOTOR_TYPE=ac\n")
	cfg, err := config.Load(src)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Machine.MotorType, qt.Equals, config.AC)
}

func TestLoad_MalformedLineReportedNotFatal(t *testing.T) {
	c := qt.New(t)
	src := strings.NewReader("this has no equals sign\nMOTOR_TYPE=stepper\n")
	cfg, err := config.Load(src)
	c.Assert(err, qt.IsNotNil)
	c.Assert(cfg.Machine.MotorType, qt.Equals, config.Stepper)
}
