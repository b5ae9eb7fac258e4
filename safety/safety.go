// Package safety implements the Safety Monitor (spec.md §4.5): a passive
// aggregator of temperature, motor-stall, and link-heartbeat signals that
// emits exactly one ErrorDetected(kind) event on first trigger and then
// stops emitting until reset.
package safety

// FaultKind is the fault taxonomy from spec.md §4.7 "Error taxonomy":
// "OverTemperature, ThermistorFault, MotorStall, LinkLost, InvalidProfile
// (boot-time; never reached Running), AutotuneAborted(reason)".
type FaultKind int

const (
	// NoFault means nothing has been detected.
	NoFault FaultKind = iota
	ThermistorFault
	OverTemperature
	MotorStall
	LinkLost
	InvalidProfile
	AutotuneAborted
)

func (k FaultKind) String() string {
	switch k {
	case ThermistorFault:
		return "thermistor_fault"
	case OverTemperature:
		return "over_temperature"
	case MotorStall:
		return "motor_stall"
	case LinkLost:
		return "link_lost"
	case InvalidProfile:
		return "invalid_profile"
	case AutotuneAborted:
		return "autotune_aborted"
	default:
		return "none"
	}
}

// stallDebounceSamples is "3 consecutive samples 20 ms apart" from spec.md
// §4.5.
const stallDebounceSamples = 3

// TempReading is the temperature input to the monitor, mirroring
// heater.Reading without importing the heater package (the two collaborate
// only through the Controller, same inversion as heater.MachineStateSource).
type TempReading struct {
	TempCentiC int
	Fault      bool
}

// Monitor aggregates temperature, stall and heartbeat signals into a single
// latched ErrorDetected(kind) event (spec.md §4.5). It holds no clock of its
// own: stall debouncing counts consecutive SampleStall calls, trusting the
// caller to drive them at the spec'd 20 ms cadence, and link-loss detection
// itself is owned by the Link Layer's heartbeat supervisor (spec.md §4.6),
// which reports in via ReportLinkLost.
type Monitor struct {
	maxTempC float64

	latestTemp TempReading
	haveTemp   bool

	stallConsecutive int
	stalled          bool

	linkLost       bool
	invalidProfile bool
	autotuneAbort  bool

	triggered bool
	kind      FaultKind
}

// NewMonitor builds a Monitor that flags OverTemperature above maxTempC.
func NewMonitor(maxTempC float64) *Monitor {
	return &Monitor{maxTempC: maxTempC}
}

// UpdateTemperature records the latest temperature reading (or fault).
func (m *Monitor) UpdateTemperature(r TempReading) {
	m.latestTemp = r
	m.haveTemp = true
}

// SampleStall feeds one motor-stall sample. Callers must sample at the
// spec'd ~20 ms cadence; three consecutive true samples latch the debounced
// stall condition, matching spec.md §4.5's "debounced: 3 consecutive
// samples 20 ms apart".
func (m *Monitor) SampleStall(rawStalled bool) {
	if rawStalled {
		m.stallConsecutive++
	} else {
		m.stallConsecutive = 0
	}
	if m.stallConsecutive >= stallDebounceSamples {
		m.stalled = true
	}
}

// ReportLinkLost is called by the Link Layer's heartbeat supervisor once its
// retry sequence has failed (spec.md §4.6).
func (m *Monitor) ReportLinkLost() { m.linkLost = true }

// ReportInvalidProfile records an InvalidProfile fault for the next
// Evaluate. Nothing in this repository calls it: Controller refuses Start
// for a program that fails validation without raising a fault.
func (m *Monitor) ReportInvalidProfile() { m.invalidProfile = true }

// ReportAutotuneAborted is called when an Autotune run ends in an abort
// reason rather than producing coefficients.
func (m *Monitor) ReportAutotuneAborted() { m.autotuneAbort = true }

// Evaluate computes the current fault condition, if any, and latches it:
// on first trigger it returns (kind, true) exactly once; subsequent calls
// return (NoFault, false) until Reset. Conditions are checked in a fixed
// priority order (sensor faults before derived conditions) so that a single
// tick with multiple simultaneous signals still reports exactly one kind.
func (m *Monitor) Evaluate() (FaultKind, bool) {
	if m.triggered {
		return NoFault, false
	}

	kind := m.detect()
	if kind == NoFault {
		return NoFault, false
	}
	m.triggered = true
	m.kind = kind
	return kind, true
}

func (m *Monitor) detect() FaultKind {
	switch {
	case m.haveTemp && m.latestTemp.Fault:
		return ThermistorFault
	case m.haveTemp && m.maxTempC > 0 && float64(m.latestTemp.TempCentiC)/100.0 > m.maxTempC:
		return OverTemperature
	case m.stalled:
		return MotorStall
	case m.linkLost:
		return LinkLost
	case m.invalidProfile:
		return InvalidProfile
	case m.autotuneAbort:
		return AutotuneAborted
	default:
		return NoFault
	}
}

// Triggered reports the latched kind, or NoFault if nothing has fired since
// the last Reset.
func (m *Monitor) Triggered() (FaultKind, bool) {
	return m.kind, m.triggered
}

// Reset clears the latch and the latched signals (stall, link loss,
// invalid profile, autotune abort) so the Monitor can detect fresh faults.
// The latest temperature reading is kept: if it is still a fault or still
// above maxTempC, the next Evaluate triggers again. The Controller is responsible for refusing to call
// Reset for LinkLost, which per spec.md §4.6 "Recovery from LinkLost is
// only via power cycle" — Monitor itself places no such restriction, since
// a power cycle reconstructs a fresh Monitor anyway.
func (m *Monitor) Reset() {
	m.triggered = false
	m.kind = NoFault
	m.stallConsecutive = 0
	m.stalled = false
	m.linkLost = false
	m.invalidProfile = false
	m.autotuneAbort = false
}
