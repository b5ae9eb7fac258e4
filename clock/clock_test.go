package clock_test

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/isochron-fw/isochron/clock"
)

func TestFake_AdvanceAccumulates(t *testing.T) {
	c := qt.New(t)
	f := clock.NewFake()
	c.Assert(f.Now(), qt.Equals, time.Duration(0))

	f.Advance(250 * time.Millisecond)
	f.Advance(250 * time.Millisecond)
	c.Assert(f.Now(), qt.Equals, 500*time.Millisecond)
}

func TestFake_SetJumpsToAbsoluteTime(t *testing.T) {
	c := qt.New(t)
	f := clock.NewFake()
	f.Advance(time.Second)
	f.Set(10 * time.Second)
	c.Assert(f.Now(), qt.Equals, 10*time.Second)
}

func TestFake_AdvanceNegativePanics(t *testing.T) {
	c := qt.New(t)
	f := clock.NewFake()
	c.Assert(func() { f.Advance(-time.Second) }, qt.PanicMatches, "clock: negative advance")
}

func TestSystem_NowIsMonotonicallyNonDecreasing(t *testing.T) {
	c := qt.New(t)
	s := clock.NewSystem()
	first := s.Now()
	time.Sleep(time.Millisecond)
	second := s.Now()
	c.Assert(second >= first, qt.IsTrue)
}
