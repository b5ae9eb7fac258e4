// Package planner implements the Motion Planner (spec.md §4.1): a pure
// math library converting (current RPM, target RPM, acceleration) into a
// time-parameterised ramp. It performs no I/O and holds no state beyond
// its inputs, matching the teacher's tmc5160/stepper.go style of plain
// value types and pure constructors.
package planner

import (
	"github.com/orsinium-labs/tinymath"
	"golang.org/x/exp/constraints"
)

// Acceleration bounds from spec.md §4.1: "Default acceleration bound:
// 50-100 RPM/s (compile-time constant within that band)".
const (
	MinAccelRPMPerS = 50.0
	MaxAccelRPMPerS = 100.0

	// DefaultAccelRPMPerS is the compile-time default used when a caller
	// does not supply its own acceleration bound.
	DefaultAccelRPMPerS = 80.0
)

// Step computes the next commanded RPM given the current commanded RPM,
// a target RPM, a maximum acceleration magnitude (RPM/s, always positive)
// and an elapsed-time step dt (seconds). Deceleration is symmetric with
// acceleration: the same maxAccel bounds both directions of change.
//
// Step never changes sign: if current and target have different signs the
// caller has violated the planner's contract (callers must drive RPM to 0,
// flip direction, then ramp up — spec.md §4.1); Step clamps target to 0 in
// that case rather than crossing zero in one step, so misuse degrades to a
// deceleration-to-zero rather than a direction flip.
func Step(current, target, maxAccel, dt float64) float64 {
	if maxAccel <= 0 || dt <= 0 {
		return current
	}
	if target < 0 {
		target = 0
	}
	if current < 0 {
		current = 0
	}

	maxDelta := maxAccel * dt
	delta := target - current

	if tinymath.Abs(float32(delta)) <= float32(maxDelta) {
		return target
	}
	if delta > 0 {
		return current + maxDelta
	}
	return current - maxDelta
}

// TimeToReach returns the wall-clock seconds a Step-driven ramp needs to
// go from current to target RPM at the given acceleration bound. No other
// package calls it; only the planner's own tests exercise it.
func TimeToReach(current, target, maxAccel float64) float64 {
	if maxAccel <= 0 {
		return 0
	}
	delta := target - current
	if delta < 0 {
		delta = -delta
	}
	return delta / maxAccel
}

// Clamp restricts v to [lo, hi]. Exported for reuse by motor, which clamps
// target RPM with it.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
