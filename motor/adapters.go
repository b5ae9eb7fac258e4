package motor

import "github.com/isochron-fw/isochron/profile"

// PercentDutyAdapter formalises the DC motor adaptation boundary from
// spec.md §9 Open Question (c): it satisfies Actuator by translating the
// RPM-based commands the Controller emits into a 0-100% PWM duty cycle
// over some underlying DC driver, so that Controller and the rest of the
// core never need to know the motor is a DC motor rather than a stepper.
type PercentDutyAdapter struct {
	// MaxRPM is the RPM value that maps to 100% duty.
	MaxRPM float64
	// SetDutyPercent and SetDirectionLevel are the underlying DC driver
	// capability the adapter wraps (soft-start/stop timing and PWM
	// frequency live in that driver, out of scope here per spec.md §6).
	SetDutyPercent    func(pct float64)
	SetDirectionLevel func(forward bool)
	EnableFn          func(on bool)
	StalledFn         func() bool
}

func (a *PercentDutyAdapter) SetRPM(rpm float64) {
	if a.MaxRPM <= 0 {
		return
	}
	pct := rpm / a.MaxRPM * 100
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	a.SetDutyPercent(pct)
}

func (a *PercentDutyAdapter) SetDirection(d profile.Direction) {
	a.SetDirectionLevel(d == profile.CW)
}

func (a *PercentDutyAdapter) Enable(on bool) { a.EnableFn(on) }

func (a *PercentDutyAdapter) IsStalled() bool {
	if a.StalledFn == nil {
		return false
	}
	return a.StalledFn()
}

// BooleanAdapter formalises the AC motor adaptation boundary from spec.md
// §9 Open Question (c): an AC relay motor has no speed control, so RPM is
// treated as a boolean (any RPM > 0 energizes the relay). Min switch delay
// and interlock wiring belong to the underlying relay driver, out of
// scope here.
type BooleanAdapter struct {
	SetEnergized      func(on bool)
	SetDirectionLevel func(forward bool)
	EnableFn          func(on bool)
}

func (a *BooleanAdapter) SetRPM(rpm float64) {
	a.SetEnergized(rpm > 0)
}

func (a *BooleanAdapter) SetDirection(d profile.Direction) {
	a.SetDirectionLevel(d == profile.CW)
}

func (a *BooleanAdapter) Enable(on bool) { a.EnableFn(on) }

func (a *BooleanAdapter) IsStalled() bool { return false }
