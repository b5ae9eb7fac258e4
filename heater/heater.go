// Package heater implements the Heater Controller (spec.md §4.3):
// bang-bang control with hysteresis, an optional time-proportioned PID
// mode, relay autotune, and a safety overlay that applies to both modes
// and is evaluated inside the controller so it is safe against caller
// mistakes.
package heater

import (
	"errors"
	"time"
)

// ErrThermocoupleOpen mirrors the teacher's max6675.ErrThermocoupleOpen
// sentinel: a temperature source reporting a fault (thermistor
// open/short) rather than a reading.
var ErrThermocoupleOpen = errors.New("heater: temperature source fault")

// TempSource is the driver collaborator contract from spec.md §6:
// "Temperature sensor: read() -> centi_celsius | Fault". Concrete
// thermistor-to-temperature conversion is out of scope (spec.md §1) and
// is represented only by this interface, the same way max6675.Device
// exposes Read() (float32, error) for a different sensor family.
type TempSource interface {
	// Read returns the current temperature in centi-celsius, or
	// ErrThermocoupleOpen (or any other error) if the reading is a fault.
	Read() (centiC int, err error)
}

// Output is the driver collaborator contract for the heater element
// itself: spec.md §6 "Heater output: set_on(bool)".
type Output interface {
	SetOn(on bool)
}

// Mode selects which control algorithm a Heater uses.
type Mode int

const (
	BangBang Mode = iota
	PID
)

// Reading is the HeaterReading entity from spec.md §3: "either
// temp_centi_c: int or Fault; replaced on each sample; only the latest is
// authoritative".
type Reading struct {
	TempCentiC int
	Fault      bool
}

// MachineStateSource lets the safety overlay ask whether the heater may be
// commanded on right now, without heater importing the control package
// (which itself depends on heater) — an inversion analogous to how
// tmc2209.UARTComm never imports the driver package that uses it.
type MachineStateSource interface {
	// HeaterMayRun reports whether the current MachineState permits the
	// heater to be commanded ON: spec.md §3 "The Heater may only be
	// commanded ON while MachineState=Running", and §4.3's safety overlay
	// additionally allows Autotuning.
	HeaterMayRun() bool
}

// DefaultHysteresisC is H from spec.md §4.3's bang-bang defaults.
const DefaultHysteresisC = 2.0

// AutotuneWindowS is the time-proportioning window for PID mode
// (spec.md §4.3: "modulated over a 10 s window").
const AutotuneWindowS = 10

// Heater wraps one control mode with the safety overlay from spec.md
// §4.3: it always commands OFF whenever the MachineState forbids running,
// the latest reading is a fault, or the temperature exceeds MaxTempC.
// These checks happen inside Heater so callers cannot forget them.
type Heater struct {
	output     Output
	state      MachineStateSource
	mode       Mode
	targetC    float64
	hysteresis float64
	maxTempC   float64

	latest Reading
	on     bool

	bangbangCommand bool

	pid *pidMode
}

// Config configures a Heater at construction time (spec.md §6 per-heater
// configuration: "sensor type, control mode, max_temp, hysteresis,
// optional PID coefficients").
type Config struct {
	Mode       Mode
	TargetC    float64
	MaxTempC   float64
	Hysteresis float64 // bang-bang only; defaults to DefaultHysteresisC if zero
	PID        PIDCoefficients
}

// New builds a Heater in the given mode.
func New(output Output, state MachineStateSource, cfg Config) *Heater {
	h := &Heater{
		output:     output,
		state:      state,
		mode:       cfg.Mode,
		targetC:    cfg.TargetC,
		hysteresis: cfg.Hysteresis,
		maxTempC:   cfg.MaxTempC,
	}
	if h.hysteresis <= 0 {
		h.hysteresis = DefaultHysteresisC
	}
	if cfg.Mode == PID {
		h.pid = newPIDMode(cfg.PID, cfg.TargetC)
	}
	return h
}

// SetTarget changes the target temperature in celsius.
func (h *Heater) SetTarget(targetC float64) {
	h.targetC = targetC
	if h.pid != nil {
		h.pid.setTarget(targetC)
	}
}

// UpdateReading records the latest temperature sample (spec.md §3:
// "Replaced on each sample; only the latest is authoritative").
func (h *Heater) UpdateReading(r Reading) {
	h.latest = r
}

// Tick evaluates the safety overlay and, if it permits running, the
// selected control mode, then drives Output accordingly. PID mode times
// its modulation window from now; dt, the elapsed seconds since the
// previous Tick, is not used by either mode. Tick returns the commanded
// on/off state actually applied, for the Controller to log/display.
func (h *Heater) Tick(now time.Time, dt float64) bool {
	if !h.safetyPermitsRun() {
		h.on = false
		h.output.SetOn(false)
		return false
	}

	var on bool
	switch h.mode {
	case PID:
		on = h.pid.tick(float64(h.latest.TempCentiC)/100.0, dt, now)
	default:
		on = h.bangBangTick(float64(h.latest.TempCentiC) / 100.0)
	}
	h.on = on
	h.output.SetOn(on)
	return on
}

// safetyPermitsRun implements spec.md §4.3's safety overlay, applying to
// both control modes: OFF whenever MachineState forbids running, the
// latest reading is a fault, or T > max_temp.
func (h *Heater) safetyPermitsRun() bool {
	if h.state != nil && !h.state.HeaterMayRun() {
		return false
	}
	if h.latest.Fault {
		return false
	}
	if h.maxTempC > 0 && float64(h.latest.TempCentiC)/100.0 > h.maxTempC {
		return false
	}
	return true
}

// bangBangTick implements spec.md §4.3's bang-bang rule: ON if T <= Tt-H,
// OFF if T >= Tt, else hold the previous command.
func (h *Heater) bangBangTick(tempC float64) bool {
	switch {
	case tempC <= h.targetC-h.hysteresis:
		h.bangbangCommand = true
	case tempC >= h.targetC:
		h.bangbangCommand = false
	}
	return h.bangbangCommand
}

// IsOn reports the last commanded state, without advancing Tick.
func (h *Heater) IsOn() bool { return h.on }

// OverTemperature reports whether the latest reading exceeds MaxTempC,
// for the Safety Monitor to aggregate (spec.md §4.5).
func (h *Heater) OverTemperature() bool {
	return h.maxTempC > 0 && float64(h.latest.TempCentiC)/100.0 > h.maxTempC
}
