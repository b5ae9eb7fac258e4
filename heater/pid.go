package heater

import (
	"time"

	"github.com/felixge/pidctrl"
)

// PIDCoefficients are the tunable gains for time-proportioned PID mode
// (spec.md §4.3). Coefficient source precedence — config, persisted
// autotune result, zeros — is implemented one layer up by whoever
// constructs a Config (cmd/isochron's boot wiring), consistent with
// "coefficient source precedence: config -> persisted autotune result ->
// zeros" being a boot-time concern, not a per-tick one.
type PIDCoefficients struct {
	Kp, Ki, Kd float64
}

// IsZero reports whether all three gains are zero, the "zeroed PID
// commands OFF (safe default)" case from spec.md §4.3.
func (c PIDCoefficients) IsZero() bool {
	return c.Kp == 0 && c.Ki == 0 && c.Kd == 0
}

// pidMode implements spec.md §4.3's time-proportioned PID: output is
// clamped to [0,1] by the underlying pidctrl.PIDController (modeled on
// other_examples/raphaelreyna-pi-heater's pkg/coil/coil.go, which wraps
// the identical library for an identical window-modulated heater), then
// spread over a 10s window as ON for floor(10*u) seconds, OFF the rest.
type pidMode struct {
	ctrl *pidctrl.PIDController
	zero bool

	windowStart   time.Time
	onDurationS   float64
	windowStarted bool
}

func newPIDMode(coef PIDCoefficients, targetC float64) *pidMode {
	m := &pidMode{zero: coef.IsZero()}
	if m.zero {
		return m
	}
	m.ctrl = pidctrl.NewPIDController(coef.Kp, coef.Ki, coef.Kd).SetOutputLimits(0, 1)
	m.ctrl.Set(targetC)
	return m
}

func (m *pidMode) setTarget(targetC float64) {
	if m.ctrl != nil {
		m.ctrl.Set(targetC)
	}
}

// tick evaluates the PID loop at most once per control period by the
// caller's discipline (spec.md default 1s sample), recomputing the
// on-duration for a new AutotuneWindowS-second window whenever the
// previous window has elapsed, and returning whether the heater should be
// on right now within the current window.
func (m *pidMode) tick(tempC float64, dt float64, now time.Time) bool {
	if m.zero {
		// A zeroed PID commands OFF (safe default) — spec.md §4.3.
		return false
	}

	if !m.windowStarted || now.Sub(m.windowStart) >= AutotuneWindowS*time.Second {
		u := m.ctrl.Update(tempC)
		m.onDurationS = float64(int(AutotuneWindowS * u))
		m.windowStart = now
		m.windowStarted = true
	}

	elapsed := now.Sub(m.windowStart).Seconds()
	return elapsed < m.onDurationS
}
