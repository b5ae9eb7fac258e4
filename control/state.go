// Package control implements the Controller state machine (spec.md §4.7):
// it owns the MachineState and ExecutionContext, consumes events from the
// Link, scheduler, heater, and safety collaborators, and emits motor
// commands, heater commands, and screen updates in response.
package control

import "github.com/isochron-fw/isochron/safety"

// MachineState is the top-level state from spec.md §3/§4.7. Per the Open
// Question decision recorded in SPEC_FULL.md, Autotuning is a first-class
// state rather than a Running variant.
type MachineState int

const (
	Boot MachineState = iota
	Idle
	ProgramSelected
	AwaitingJar
	Running
	Paused
	AwaitingSpinOff
	SpinOff
	StepComplete
	ProgramComplete
	Autotuning
	Error
)

func (s MachineState) String() string {
	switch s {
	case Boot:
		return "boot"
	case Idle:
		return "idle"
	case ProgramSelected:
		return "program_selected"
	case AwaitingJar:
		return "awaiting_jar"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case AwaitingSpinOff:
		return "awaiting_spin_off"
	case SpinOff:
		return "spin_off"
	case StepComplete:
		return "step_complete"
	case ProgramComplete:
		return "program_complete"
	case Autotuning:
		return "autotuning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// ExecutionContext is the run-time bookkeeping the Controller owns
// alongside MachineState (spec.md §4.7 "Owns the MachineState and the
// ExecutionContext").
type ExecutionContext struct {
	ProgramLabel string
	StepIndex    int
	ProfileLabel string

	// Editing is true while ProgramSelected's EditParameter internal
	// sub-state is active (spec.md §4.7's transition table footnote
	// "(internal sub-state)").
	Editing bool

	// Fault holds the kind that drove the machine into Error, so the
	// screen and AcknowledgeError guard can inspect it.
	Fault safety.FaultKind
}
