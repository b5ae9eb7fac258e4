package heater

import (
	"time"
)

// AutotuneAbortReason names why an Autotune run stopped without producing
// coefficients (spec.md §4.3: "Abort on: T > max_temp, 20-minute
// wall-clock timeout, sensor fault, or user cancel").
type AutotuneAbortReason int

const (
	AbortNone AutotuneAbortReason = iota
	AbortOverTemp
	AbortTimeout
	AbortSensorFault
	AbortUserCancel
)

func (r AutotuneAbortReason) String() string {
	switch r {
	case AbortOverTemp:
		return "over_temperature"
	case AbortTimeout:
		return "timeout"
	case AbortSensorFault:
		return "sensor_fault"
	case AbortUserCancel:
		return "user_cancel"
	default:
		return "none"
	}
}

// ErrAutotuneAborted wraps an AutotuneAbortReason for callers that want a
// plain error.
type ErrAutotuneAborted struct {
	Reason AutotuneAbortReason
}

func (e *ErrAutotuneAborted) Error() string {
	return "heater: autotune aborted: " + e.Reason.String()
}

// AutotuneTimeout is the 20-minute wall-clock ceiling from spec.md §4.3.
const AutotuneTimeout = 20 * time.Minute

// RelayAmplitude is the fixed relay output swing used while autotuning
// (the "d" in Ku=(4d)/(pi*a)).
const RelayAmplitude = 1.0

// minPeaksRequired is the "After >= 12 peaks" threshold from spec.md
// §4.3.
const minPeaksRequired = 12

// Autotune runs the Astrom-Hagglund relay + Ziegler-Nichols procedure
// described in spec.md §4.3. It owns its own small state machine (relay
// on/off around targetC, peak detection) and is driven one sample at a
// time by Sample, mirroring the rest of the core's "reducer fed by an
// external clock" shape (spec.md §9).
type Autotune struct {
	targetC  float64
	maxTempC float64
	output   Output

	relayOn      bool
	lastTemp     float64
	haveLast     bool
	rising       bool
	peakTimes    []time.Duration
	peakValues   []float64
	start        time.Time
	started      bool

	done   bool
	reason AutotuneAbortReason
	result PIDCoefficients
}

// NewAutotune begins a relay autotune run targeting targetC, aborting if
// temperature ever exceeds maxTempC.
func NewAutotune(output Output, targetC, maxTempC float64) *Autotune {
	return &Autotune{targetC: targetC, maxTempC: maxTempC, output: output}
}

// Sample feeds one temperature reading (or fault) at wall-clock time now.
// It returns true once the run has concluded (successfully or aborted);
// callers should stop calling Sample after that and inspect Result/Aborted.
func (a *Autotune) Sample(now time.Time, r Reading) bool {
	if a.done {
		return true
	}
	if !a.started {
		a.start = now
		a.started = true
	}
	if now.Sub(a.start) > AutotuneTimeout {
		a.abort(AbortTimeout)
		return true
	}
	if r.Fault {
		a.abort(AbortSensorFault)
		return true
	}
	tempC := float64(r.TempCentiC) / 100.0
	if tempC > a.maxTempC {
		a.abort(AbortOverTemp)
		return true
	}

	// Relay: ON if below target, OFF if above — classic Astrom-Hagglund.
	a.relayOn = tempC < a.targetC
	a.output.SetOn(a.relayOn)

	if a.haveLast {
		wasRising := tempC > a.lastTemp
		if a.haveDirection() && wasRising != a.rising {
			a.recordPeak(now, a.lastTemp)
		}
		a.rising = wasRising
	}
	a.lastTemp = tempC
	a.haveLast = true

	if len(a.peakValues) >= minPeaksRequired {
		a.finish()
		return true
	}
	return false
}

func (a *Autotune) haveDirection() bool {
	return len(a.peakTimes) > 0 || a.haveLast
}

func (a *Autotune) recordPeak(now time.Time, value float64) {
	a.peakTimes = append(a.peakTimes, now.Sub(a.start))
	a.peakValues = append(a.peakValues, value)
}

// Cancel aborts the run at the user's request (spec.md §4.3 "user
// cancel").
func (a *Autotune) Cancel() {
	a.abort(AbortUserCancel)
}

func (a *Autotune) abort(reason AutotuneAbortReason) {
	a.output.SetOn(false)
	a.done = true
	a.reason = reason
}

// finish computes Pu (average peak-to-peak interval), Ku=(4d)/(pi*a), and
// derives (Kp,Ki,Kd) via the classic Ziegler-Nichols PID rules, per
// spec.md §4.3.
func (a *Autotune) finish() {
	a.output.SetOn(false)
	a.done = true
	a.reason = AbortNone

	pu := ultimatePeriod(a.peakTimes)
	amp := oscillationAmplitude(a.peakValues)
	if amp <= 0 {
		a.reason = AbortSensorFault
		return
	}
	ku := (4 * RelayAmplitude) / (mathPi * amp)

	// Classic Ziegler-Nichols PID rules.
	kp := 0.6 * ku
	ti := pu / 2
	td := pu / 8
	ki := 0.0
	kd := 0.0
	if ti > 0 {
		ki = kp / ti
	}
	kd = kp * td

	a.result = PIDCoefficients{Kp: kp, Ki: ki, Kd: kd}
}

const mathPi = 3.14159265358979323846

// ultimatePeriod averages consecutive peak-to-peak intervals.
func ultimatePeriod(peaks []time.Duration) float64 {
	if len(peaks) < 2 {
		return 0
	}
	var total time.Duration
	for i := 1; i < len(peaks); i++ {
		total += peaks[i] - peaks[i-1]
	}
	n := len(peaks) - 1
	return (total.Seconds()) / float64(n)
}

// oscillationAmplitude estimates "a" as half the peak-to-trough swing
// across the recorded extrema.
func oscillationAmplitude(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return (max - min) / 2
}

// Done reports whether the run has concluded.
func (a *Autotune) Done() bool { return a.done }

// Aborted reports the abort reason, or AbortNone if the run completed
// successfully.
func (a *Autotune) Aborted() AutotuneAbortReason { return a.reason }

// Result returns the derived PID coefficients. Only meaningful when Done
// is true and Aborted() == AbortNone.
func (a *Autotune) Result() PIDCoefficients { return a.result }

// AsError returns an ErrAutotuneAborted if the run aborted, else nil.
func (a *Autotune) AsError() error {
	if !a.done || a.reason == AbortNone {
		return nil
	}
	return &ErrAutotuneAborted{Reason: a.reason}
}
