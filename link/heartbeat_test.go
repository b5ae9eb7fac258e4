package link_test

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/isochron-fw/isochron/link"
)

// TestHeartbeat_LinkLostMidRun mirrors spec.md §8 scenario 3 exactly: PING
// expected at t=1.0, 2.0, 3.0, none arrive; retry sequence starts at t=3.0
// (PONG, wait 500ms, repeat 3x); link lost fires at t=4.5.
func TestHeartbeat_LinkLostMidRun(t *testing.T) {
	c := qt.New(t)
	var pongs int
	var lost bool
	hb := link.NewHeartbeat(func() { pongs++ }, func() { lost = true })

	start := time.Now()
	hb.Tick(start) // establishes the first window

	at := func(s float64) time.Time { return start.Add(time.Duration(s * float64(time.Second))) }

	hb.Tick(at(1.0)) // missed window 1
	c.Assert(lost, qt.IsFalse)
	hb.Tick(at(2.0)) // missed window 2
	c.Assert(lost, qt.IsFalse)
	hb.Tick(at(3.0)) // missed window 3 -> retry sequence begins, 1st PONG
	c.Assert(lost, qt.IsFalse)
	c.Assert(pongs, qt.Equals, 1)

	hb.Tick(at(3.5)) // retry 2
	c.Assert(pongs, qt.Equals, 2)
	hb.Tick(at(4.0)) // retry 3
	c.Assert(pongs, qt.Equals, 3)
	c.Assert(lost, qt.IsFalse)

	hb.Tick(at(4.5)) // retries exhausted
	c.Assert(lost, qt.IsTrue)
}

func TestHeartbeat_PingRecoversDuringRetry(t *testing.T) {
	c := qt.New(t)
	var lost bool
	hb := link.NewHeartbeat(func() {}, func() { lost = true })

	start := time.Now()
	hb.Tick(start)
	at := func(s float64) time.Time { return start.Add(time.Duration(s * float64(time.Second))) }
	hb.Tick(at(1.0))
	hb.Tick(at(2.0))
	hb.Tick(at(3.0)) // retry begins

	hb.OnPing(at(3.2))
	hb.Tick(at(3.5))
	hb.Tick(at(4.0))
	hb.Tick(at(4.5))
	c.Assert(lost, qt.IsFalse, qt.Commentf("a PING during the retry sequence must recover the link"))
}

func TestHeartbeat_RegularPingsNeverTrigger(t *testing.T) {
	c := qt.New(t)
	var lost bool
	hb := link.NewHeartbeat(func() {}, func() { lost = true })
	start := time.Now()
	hb.Tick(start)
	for i := 1; i <= 10; i++ {
		now := start.Add(time.Duration(i) * time.Second)
		hb.OnPing(now)
		hb.Tick(now)
	}
	c.Assert(lost, qt.IsFalse)
}
