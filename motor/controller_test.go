package motor_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/isochron-fw/isochron/motor"
	"github.com/isochron-fw/isochron/profile"
)

type fakeActuator struct {
	rpm     float64
	dir     profile.Direction
	enabled bool
	stall   bool
}

func (f *fakeActuator) SetRPM(rpm float64)           { f.rpm = rpm }
func (f *fakeActuator) SetDirection(d profile.Direction) { f.dir = d }
func (f *fakeActuator) Enable(on bool)                { f.enabled = on }
func (f *fakeActuator) IsStalled() bool               { return f.stall }

func TestController_RampsToTarget(t *testing.T) {
	c := qt.New(t)
	act := &fakeActuator{}
	ctrl := motor.NewController(act, 80)
	ctrl.Enable(true)
	ctrl.SetTarget(120, profile.CW)

	got := ctrl.Poll(1)
	c.Assert(got, qt.Equals, 80.0)
	got = ctrl.Poll(1)
	c.Assert(got, qt.Equals, 120.0)
	c.Assert(act.rpm, qt.Equals, 120.0)
}

func TestController_ReversalRequiresZeroCrossing(t *testing.T) {
	c := qt.New(t)
	act := &fakeActuator{}
	ctrl := motor.NewController(act, 80)
	ctrl.Enable(true)
	ctrl.SetTarget(120, profile.CW)
	ctrl.Poll(1)
	ctrl.Poll(1) // at 120 cw

	ctrl.SetTarget(120, profile.CCW)

	// First tick after reversal request: must decelerate, direction still CW.
	rpm := ctrl.Poll(1)
	c.Assert(rpm, qt.Equals, 40.0)
	c.Assert(ctrl.Direction(), qt.Equals, profile.CW)

	// Second tick: reaches 0, direction flips to CCW, but commanded RPM is 0
	// at the exact tick of the flip (Universal invariant 4).
	rpm = ctrl.Poll(1)
	c.Assert(rpm, qt.Equals, 0.0)
	c.Assert(ctrl.Direction(), qt.Equals, profile.CCW)

	// Subsequent ticks ramp up toward the latched target in the new direction.
	rpm = ctrl.Poll(1)
	c.Assert(rpm, qt.Equals, 80.0)
	c.Assert(act.dir, qt.Equals, profile.CCW)
}

func TestController_StallLatchesUntilDisabled(t *testing.T) {
	c := qt.New(t)
	act := &fakeActuator{}
	ctrl := motor.NewController(act, 80)
	ctrl.Enable(true)

	c.Assert(ctrl.IsStalled(), qt.IsFalse)
	act.stall = true
	c.Assert(ctrl.IsStalled(), qt.IsTrue)

	act.stall = false
	c.Assert(ctrl.IsStalled(), qt.IsTrue, qt.Commentf("stall must latch"))

	ctrl.Enable(false)
	c.Assert(ctrl.IsStalled(), qt.IsFalse)
}

func TestController_DisabledDoesNotRamp(t *testing.T) {
	c := qt.New(t)
	act := &fakeActuator{}
	ctrl := motor.NewController(act, 80)
	ctrl.SetTarget(120, profile.CW)
	got := ctrl.Poll(1)
	c.Assert(got, qt.Equals, 0.0)
}
