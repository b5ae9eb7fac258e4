// Package sim provides in-memory stand-ins for the driver collaborator
// contracts consumed by motor, heater and link (spec.md §6): a stepper/DC/AC
// actuator, a heater output, and a temperature source. They exist for local
// development and integration tests without real silicon attached, the same
// "default values used for testing" role tmc5160.NewDefaultStepper plays for
// the teacher's stepper math. cmd/isochron always boots with these drivers.
package sim

import (
	"sync"

	"github.com/isochron-fw/isochron/profile"
)

// Actuator is an in-memory motor.Actuator that simply records the last
// commanded RPM/direction/enable state. It never stalls unless told to via
// SetStalled, which a test can use to exercise the Safety Monitor's debounce.
type Actuator struct {
	mu        sync.Mutex
	rpm       float64
	direction profile.Direction
	enabled   bool
	stalled   bool
}

// NewActuator returns an Actuator with default values used for local
// development and tests: direction CW, disabled, not stalled.
func NewActuator() *Actuator {
	return &Actuator{direction: profile.CW}
}

func (a *Actuator) SetRPM(rpm float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rpm = rpm
}

func (a *Actuator) SetDirection(d profile.Direction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.direction = d
}

func (a *Actuator) Enable(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = on
}

func (a *Actuator) IsStalled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stalled
}

// SetStalled injects a stall condition for the next IsStalled poll, for
// tests driving the Safety Monitor's debounce.
func (a *Actuator) SetStalled(stalled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stalled = stalled
}

// RPM reports the last commanded RPM.
func (a *Actuator) RPM() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rpm
}

// Direction reports the last commanded direction.
func (a *Actuator) Direction() profile.Direction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.direction
}

// Enabled reports the last commanded enable state.
func (a *Actuator) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// HeaterOutput is an in-memory heater.Output that records the last
// commanded on/off state.
type HeaterOutput struct {
	mu sync.Mutex
	on bool
}

// NewHeaterOutput returns a HeaterOutput starting OFF.
func NewHeaterOutput() *HeaterOutput { return &HeaterOutput{} }

func (h *HeaterOutput) SetOn(on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.on = on
}

// On reports the last commanded state.
func (h *HeaterOutput) On() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.on
}

// TempSource is an in-memory heater.TempSource whose reading is set
// externally — by a test, or by a simple thermal model driven by a
// HeaterOutput in a development harness.
type TempSource struct {
	mu     sync.Mutex
	centiC int
	fault  bool
}

// NewTempSource returns a TempSource reporting 20.00C with no fault.
func NewTempSource() *TempSource {
	return &TempSource{centiC: 2000}
}

func (t *TempSource) Read() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fault {
		return 0, errThermocoupleFault
	}
	return t.centiC, nil
}

// Set overrides the next Read's reading.
func (t *TempSource) Set(centiC int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.centiC = centiC
	t.fault = false
}

// SetFault makes the next Read report a sensor fault until cleared by Set.
func (t *TempSource) SetFault(fault bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fault = fault
}

type simError string

func (e simError) Error() string { return string(e) }

const errThermocoupleFault = simError("sim: temperature source fault")
