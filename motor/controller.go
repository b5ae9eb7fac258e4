package motor

import (
	"sync"

	"github.com/isochron-fw/isochron/planner"
	"github.com/isochron-fw/isochron/profile"
)

// Controller drives an Actuator through the planner's ramp, holding the
// current commanded RPM and direction, and enforcing spec.md §3's
// invariant: "The Motor direction field never transitions cw<->ccw while
// commanded RPM > 0."
//
// On a target change that reverses direction while commanded RPM > 0, the
// Controller latches the new (rpm, direction) as pending, forces the
// immediate target to 0, and only rotates the direction field once
// commanded RPM reaches exactly 0 — then it resumes ramping toward the
// latched target (spec.md §4.2).
type Controller struct {
	actuator Actuator
	maxAccel float64 // RPM/s

	mu sync.Mutex

	commandedRPM float64
	direction    profile.Direction
	enabled      bool

	pendingRPM       float64
	pendingDirection profile.Direction
	reversalPending  bool

	stalled bool
}

// NewController returns a Controller driving actuator with the given
// acceleration bound (spec.md §4.1 default band 50-100 RPM/s). Initial
// direction is CW, commanded RPM 0, disabled.
func NewController(actuator Actuator, maxAccelRPMPerS float64) *Controller {
	if maxAccelRPMPerS <= 0 {
		maxAccelRPMPerS = planner.DefaultAccelRPMPerS
	}
	return &Controller{
		actuator:  actuator,
		maxAccel:  maxAccelRPMPerS,
		direction: profile.CW,
	}
}

// Enable turns the actuator on or off. Disabling also clears a latched
// stall fault (spec.md §4.2: "is_stalled() returns true persistently
// until enable(false) is called").
func (c *Controller) Enable(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = on
	c.actuator.Enable(on)
	if !on {
		c.stalled = false
		c.commandedRPM = 0
		c.reversalPending = false
	}
}

// SetTarget requests a new target RPM and direction. If direction differs
// from the current direction while commandedRPM > 0, the change is
// latched: the Controller first decelerates to 0 at the current
// direction, only then flips direction and ramps toward the latched
// target. If direction matches (or commandedRPM is already 0), the target
// takes effect immediately on the next Poll.
func (c *Controller) SetTarget(rpm float64, dir profile.Direction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rpm = planner.Clamp(rpm, 0, 250)

	if dir != c.direction && c.commandedRPM > 0 {
		c.pendingRPM = rpm
		c.pendingDirection = dir
		c.reversalPending = true
		return
	}
	c.direction = dir
	c.pendingRPM = rpm
	c.pendingDirection = dir
	c.reversalPending = false
}

// Poll advances the ramp by dt seconds (the caller supplies its own
// elapsed time, per spec.md §9's "real time enters only through the now
// argument" design note applied uniformly across the core) and returns the
// newly commanded RPM.
func (c *Controller) Poll(dt float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return c.commandedRPM
	}

	if c.reversalPending {
		// Decelerate to 0 at the current direction first.
		c.commandedRPM = planner.Step(c.commandedRPM, 0, c.maxAccel, dt)
		if c.commandedRPM == 0 {
			c.direction = c.pendingDirection
			c.reversalPending = false
		}
		c.actuator.SetDirection(c.direction)
		c.actuator.SetRPM(c.commandedRPM)
		return c.commandedRPM
	}

	c.commandedRPM = planner.Step(c.commandedRPM, c.pendingRPM, c.maxAccel, dt)
	c.actuator.SetDirection(c.direction)
	c.actuator.SetRPM(c.commandedRPM)
	return c.commandedRPM
}

// CommandedRPM returns the last RPM value Poll computed, without advancing
// the ramp.
func (c *Controller) CommandedRPM() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandedRPM
}

// Direction returns the current (already-flipped, not pending) direction.
func (c *Controller) Direction() profile.Direction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.direction
}

// IsStalled reports a latched stall fault observed from the actuator.
// Once true, it stays true until Enable(false) is called (spec.md §4.2).
func (c *Controller) IsStalled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stalled && c.actuator.IsStalled() {
		c.stalled = true
	}
	return c.stalled
}

// Stop requests an immediate ramp-to-zero at the current direction,
// without disabling the actuator. Used by Pause (spec.md §4.7: "decel
// motor, heater off").
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingRPM = 0
	c.pendingDirection = c.direction
	c.reversalPending = false
}
