package control

import (
	"time"

	"github.com/isochron-fw/isochron/heater"
	"github.com/isochron-fw/isochron/link"
	"github.com/isochron-fw/isochron/safety"
)

// EventKind names the event taxonomy the Controller consumes (spec.md
// §4.7: "input events from the Link, TICK, StepFinished/ProfileFinished
// from scheduler, HeaterReading from heater collaborator, MOTOR_STALL from
// safety input, HEARTBEAT from link").
type EventKind int

const (
	EvBootComplete EventKind = iota
	EvSelectProgram
	EvEditParameter
	EvCommitEdit
	EvDiscardEdit
	EvStart
	EvUserConfirm
	EvPause
	EvResume
	EvStepFinished
	EvProfileFinished
	EvSpinOffFinished
	EvNextStep
	EvAbort
	EvErrorDetected
	EvAcknowledgeError
	EvTick
	EvHeaterReading
	EvMotorStall
	EvLinkInput
	EvHeartbeatPing
	EvStartAutotune
)

// Event is a single input to Controller.Step. Only the fields relevant to
// Kind are meaningful; Step is a total function over every Kind regardless
// of which other fields are populated.
type Event struct {
	Kind EventKind

	Program string
	Fault   safety.FaultKind
	Now     time.Time
	DT      float64
	Reading heater.Reading
	Stalled bool
	Input   link.EncoderEvent
}

func BootComplete() Event                { return Event{Kind: EvBootComplete} }
func SelectProgram(label string) Event   { return Event{Kind: EvSelectProgram, Program: label} }
func EditParameter() Event               { return Event{Kind: EvEditParameter} }
func CommitEdit() Event                  { return Event{Kind: EvCommitEdit} }
func DiscardEdit() Event                 { return Event{Kind: EvDiscardEdit} }
func Start() Event                       { return Event{Kind: EvStart} }
func UserConfirm() Event                 { return Event{Kind: EvUserConfirm} }
func Pause() Event                       { return Event{Kind: EvPause} }
func Resume() Event                      { return Event{Kind: EvResume} }
func StepFinished() Event                { return Event{Kind: EvStepFinished} }
func ProfileFinished() Event             { return Event{Kind: EvProfileFinished} }
func SpinOffFinished() Event             { return Event{Kind: EvSpinOffFinished} }
func NextStep() Event                    { return Event{Kind: EvNextStep} }
func Abort() Event                       { return Event{Kind: EvAbort} }
func ErrorDetected(k safety.FaultKind) Event {
	return Event{Kind: EvErrorDetected, Fault: k}
}
func AcknowledgeError() Event { return Event{Kind: EvAcknowledgeError} }
func Tick(now time.Time, dt float64) Event {
	return Event{Kind: EvTick, Now: now, DT: dt}
}
func HeaterReading(r heater.Reading) Event {
	return Event{Kind: EvHeaterReading, Reading: r}
}
func MotorStall(stalled bool) Event { return Event{Kind: EvMotorStall, Stalled: stalled} }
func LinkInput(ev link.EncoderEvent) Event {
	return Event{Kind: EvLinkInput, Input: ev}
}
func HeartbeatPing(now time.Time) Event { return Event{Kind: EvHeartbeatPing, Now: now} }
func StartAutotune() Event              { return Event{Kind: EvStartAutotune} }
