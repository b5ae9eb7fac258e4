package sim_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/isochron-fw/isochron/drivers/sim"
	"github.com/isochron-fw/isochron/profile"
)

func TestActuator_RecordsCommands(t *testing.T) {
	c := qt.New(t)
	a := sim.NewActuator()
	a.Enable(true)
	a.SetDirection(profile.CCW)
	a.SetRPM(42)

	c.Assert(a.Enabled(), qt.IsTrue)
	c.Assert(a.Direction(), qt.Equals, profile.CCW)
	c.Assert(a.RPM(), qt.Equals, 42.0)
	c.Assert(a.IsStalled(), qt.IsFalse)

	a.SetStalled(true)
	c.Assert(a.IsStalled(), qt.IsTrue)
}

func TestHeaterOutput_RecordsCommands(t *testing.T) {
	c := qt.New(t)
	h := sim.NewHeaterOutput()
	c.Assert(h.On(), qt.IsFalse)
	h.SetOn(true)
	c.Assert(h.On(), qt.IsTrue)
}

func TestTempSource_ReadsAndFaults(t *testing.T) {
	c := qt.New(t)
	ts := sim.NewTempSource()
	v, err := ts.Read()
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, 2000)

	ts.Set(3500)
	v, err = ts.Read()
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, 3500)

	ts.SetFault(true)
	_, err = ts.Read()
	c.Assert(err, qt.IsNotNil)

	ts.Set(2500)
	v, err = ts.Read()
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, 2500)
}
