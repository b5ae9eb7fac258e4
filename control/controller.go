package control

import (
	"github.com/isochron-fw/isochron/heater"
	"github.com/isochron-fw/isochron/link"
	"github.com/isochron-fw/isochron/motor"
	"github.com/isochron-fw/isochron/profile"
	"github.com/isochron-fw/isochron/safety"
	"github.com/isochron-fw/isochron/scheduler"
)

// Config configures a Controller at construction time.
type Config struct {
	// Automated reports whether the machine loads jars without operator
	// intervention. When false, Start goes through AwaitingJar and a
	// finished profile's spinoff, if any, goes through AwaitingSpinOff
	// (spec.md §4.7: "automated? -> AwaitingJar (manual) or Running
	// (auto)").
	Automated bool
}

// Controller owns MachineState and ExecutionContext (spec.md §4.7) and
// drives the Motor Controller, Heater Controller, Scheduler and Screen
// collaborators in response to events. Step is total: every EventKind is
// handled from every MachineState, even if only to ignore it, so the
// Controller never panics on an unexpected interleaving (spec.md §5:
// "the controller handles any interleaving safely because all handlers
// are total and state-guarded").
type Controller struct {
	cfg   Config
	store *profile.Store

	motor *motor.Controller
	htr   *heater.Heater
	sched *scheduler.Scheduler
	mon   *safety.Monitor
	scr   *link.Screen

	state MachineState
	ctx   ExecutionContext
}

// New builds a Controller in the Boot state.
func New(cfg Config, store *profile.Store, m *motor.Controller, h *heater.Heater, s *scheduler.Scheduler, mon *safety.Monitor, scr *link.Screen) *Controller {
	return &Controller{
		cfg:   cfg,
		store: store,
		motor: m,
		htr:   h,
		sched: s,
		mon:   mon,
		scr:   scr,
		state: Boot,
	}
}

// State reports the current MachineState.
func (c *Controller) State() MachineState { return c.state }

// Context reports the current ExecutionContext.
func (c *Controller) Context() ExecutionContext { return c.ctx }

// HeaterMayRun implements heater.MachineStateSource (spec.md §4.3's safety
// overlay: "MachineState=Running" plus Autotuning).
func (c *Controller) HeaterMayRun() bool {
	return c.state == Running || c.state == Autotuning
}

// Step consumes one event and returns any fault that caused a transition
// to Error during this call, or (NoFault, false) otherwise. It never
// panics and never blocks.
func (c *Controller) Step(ev Event) (safety.FaultKind, bool) {
	// ErrorDetected and Abort preempt from any state (spec.md §4.7: "any,
	// ErrorDetected(k)" / "any, Abort"). HeaterReading and MotorStall feed
	// the Safety Monitor from any state too, since over-temperature and
	// stall must be detectable even while not Running (spec.md §4.5's
	// aggregator has no MachineState gate of its own).
	switch ev.Kind {
	case EvErrorDetected:
		return c.toError(ev.Fault), true
	case EvAbort:
		c.toIdleViaAbort()
		return safety.NoFault, false
	case EvHeaterReading:
		c.htr.UpdateReading(ev.Reading)
		c.mon.UpdateTemperature(safety.TempReading{TempCentiC: ev.Reading.TempCentiC, Fault: ev.Reading.Fault})
	case EvMotorStall:
		c.mon.SampleStall(ev.Stalled)
	case EvTick:
		if kind, ok := c.tick(ev); ok {
			return kind, true
		}
	}

	switch c.state {
	case Boot:
		c.stepBoot(ev)
	case Idle:
		c.stepIdle(ev)
	case ProgramSelected:
		c.stepProgramSelected(ev)
	case AwaitingJar:
		c.stepAwaitingJar(ev)
	case Running:
		c.stepRunning(ev)
	case Paused:
		c.stepPaused(ev)
	case AwaitingSpinOff:
		c.stepAwaitingSpinOff(ev)
	case SpinOff:
		c.stepSpinOff(ev)
	case StepComplete:
		c.stepStepComplete(ev)
	case ProgramComplete:
		c.stepProgramComplete(ev)
	case Autotuning:
		c.stepAutotuning(ev)
	case Error:
		c.stepError(ev)
	}
	return safety.NoFault, false
}

func (c *Controller) stepBoot(ev Event) {
	if ev.Kind == EvBootComplete {
		c.state = Idle
	}
}

func (c *Controller) stepIdle(ev Event) {
	switch ev.Kind {
	case EvSelectProgram:
		c.selectProgram(ev.Program)
	case EvStartAutotune:
		c.state = Autotuning
		c.scr.Clear()
		c.scr.SetRow(0, "autotune")
		c.scr.SetRow(1, "running")
	}
}

func (c *Controller) selectProgram(label string) {
	c.ctx = ExecutionContext{ProgramLabel: label}
	c.state = ProgramSelected
	c.scr.Clear()
	c.scr.SetRow(0, label)
	c.scr.SetRow(1, "press to start")
	c.scr.Select(0)
}

func (c *Controller) stepProgramSelected(ev Event) {
	switch ev.Kind {
	case EvEditParameter:
		c.beginEdit()
	case EvCommitEdit:
		c.commitEdit()
	case EvDiscardEdit:
		c.store.DiscardEdits()
		c.ctx.Editing = false
	case EvStart:
		c.start()
	}
}

// beginEdit opens a session-only copy of the selected program's first
// step's profile (spec.md §3: "may be edited in a session-only copy").
// Which single field within that profile an encoder turn would adjust is a
// UI field-cursor concern this core doesn't model; beginEdit only opens the
// editable copy that a richer terminal UI would mutate before CommitEdit.
func (c *Controller) beginEdit() {
	prog, ok := c.store.GetProgram(c.ctx.ProgramLabel)
	if !ok || len(prog.Steps) == 0 {
		return
	}
	label := prog.Steps[0].Profile
	if _, ok := c.store.BeginEdit(label); !ok {
		return
	}
	c.ctx.ProfileLabel = label
	c.ctx.Editing = true
}

// commitEdit re-validates the session-only edited copy (spec.md §3) by
// re-submitting it through Store.CommitEdit. A copy that fails validation
// is not reverted: it stays in the session overlay, where Start's program
// validation refuses it, until DiscardEdit.
func (c *Controller) commitEdit() {
	edited, ok := c.store.Get(c.ctx.ProfileLabel)
	if ok {
		c.store.CommitEdit(c.ctx.ProfileLabel, edited)
	}
	c.ctx.Editing = false
}

// start validates the selected program (spec.md §4.7: "Start is rejected
// (no transition) unless the selected program's profiles all pass
// validation") and, if valid, initializes the Scheduler for the first
// step.
func (c *Controller) start() {
	prog, ok := c.store.GetProgram(c.ctx.ProgramLabel)
	if !ok {
		return
	}
	if err := profile.ValidateProgram(prog, c.store.Profiles()); err != nil {
		return
	}
	if len(prog.Steps) == 0 {
		return
	}
	c.ctx.StepIndex = 0
	if !c.beginStep(prog) {
		return
	}
	if c.cfg.Automated {
		c.state = Running
	} else {
		c.state = AwaitingJar
		c.scr.SetRow(3, "load jar, press to continue")
		c.scr.Select(3)
	}
}

// beginStep loads the profile for the current StepIndex into the
// Scheduler. It returns false (leaving MachineState untouched) if the step
// references a profile that no longer resolves.
func (c *Controller) beginStep(prog *profile.Program) bool {
	step := prog.Steps[c.ctx.StepIndex]
	p, ok := c.store.Get(step.Profile)
	if !ok {
		return false
	}
	if err := c.sched.Start(p); err != nil {
		return false
	}
	c.ctx.ProfileLabel = step.Profile
	c.htr.SetTarget(targetTempC(p))
	dir := profile.CW
	if seg, ok := c.sched.CurrentSegment(); ok {
		dir = seg.Direction
	}
	c.motor.Enable(true)
	c.motor.SetTarget(p.RPM, dir)
	c.scr.Clear()
	c.scr.SetRow(0, c.ctx.ProgramLabel)
	c.scr.SetRow(1, step.Profile+" "+dir.String())
	return true
}

func targetTempC(p *profile.Profile) float64 {
	if p.TempC == nil {
		return 0
	}
	return float64(*p.TempC)
}

func (c *Controller) stepAwaitingJar(ev Event) {
	if ev.Kind == EvUserConfirm {
		c.state = Running
		c.scr.SetRow(3, "")
		c.scr.Select(-1)
	}
}

func (c *Controller) stepRunning(ev Event) {
	switch ev.Kind {
	case EvPause:
		c.motor.Stop()
		c.sched.Pause()
		c.state = Paused
		c.scr.SetRow(3, "paused")
		c.scr.Select(3)
	case EvStepFinished:
		c.advanceSegment()
	case EvProfileFinished:
		c.finishProfile()
	}
}

// advanceSegment instructs the motor controller through the per-segment
// sequence from spec.md §4.4: decelerate to 0, set direction, accelerate to
// rpm. motor.Controller's own reversal latch already enforces "decelerate,
// flip, re-accelerate" when the new segment's direction differs.
func (c *Controller) advanceSegment() {
	seg, ok := c.sched.CurrentSegment()
	if !ok {
		return
	}
	p, ok := c.store.Get(c.ctx.ProfileLabel)
	if !ok {
		return
	}
	c.motor.SetTarget(p.RPM, seg.Direction)
	c.scr.SetRow(1, c.ctx.ProfileLabel+" "+seg.Direction.String())
}

func (c *Controller) finishProfile() {
	p, ok := c.store.Get(c.ctx.ProfileLabel)
	if !ok {
		c.state = StepComplete
		c.tryAdvanceStep()
		return
	}
	switch {
	case p.Spinoff == nil:
		c.state = StepComplete
		c.tryAdvanceStep()
	case c.cfg.Automated:
		c.beginSpinOff(p)
	default:
		c.state = AwaitingSpinOff
		c.scr.Clear()
		c.scr.SetRow(0, c.ctx.ProgramLabel)
		c.scr.SetRow(1, "Lift basket, press to continue")
		c.scr.Select(1)
	}
}

func (c *Controller) beginSpinOff(p *profile.Profile) {
	c.state = SpinOff
	c.motor.Enable(true)
	c.motor.SetTarget(p.Spinoff.RPM, profile.CW)
	c.scr.Clear()
	c.scr.SetRow(0, c.ctx.ProgramLabel)
	c.scr.SetRow(1, "spinning off")
}

func (c *Controller) stepPaused(ev Event) {
	if ev.Kind == EvResume {
		p, ok := c.store.Get(c.ctx.ProfileLabel)
		if ok {
			seg, segOK := c.sched.CurrentSegment()
			if segOK {
				c.motor.SetTarget(p.RPM, seg.Direction)
			}
		}
		c.sched.Resume()
		c.state = Running
		c.scr.SetRow(3, "")
		c.scr.Select(-1)
	}
}

func (c *Controller) stepAwaitingSpinOff(ev Event) {
	if ev.Kind == EvUserConfirm {
		p, ok := c.store.Get(c.ctx.ProfileLabel)
		if ok && p.Spinoff != nil {
			c.beginSpinOff(p)
		}
	}
}

func (c *Controller) stepSpinOff(ev Event) {
	if ev.Kind == EvSpinOffFinished {
		c.motor.Stop()
		c.state = StepComplete
		c.tryAdvanceStep()
	}
}

func (c *Controller) stepStepComplete(ev Event) {
	if ev.Kind == EvNextStep {
		c.tryAdvanceStep()
	}
}

// tryAdvanceStep implements the StepComplete -> NextStep -> Running /
// ProgramComplete transition. It is invoked both by an explicit NextStep
// event and internally immediately after StepComplete is reached, since
// spec.md §8 scenario 1's trace ("StepComplete -> NextStep -> Running")
// happens without any intervening user action for automatic step
// progression.
func (c *Controller) tryAdvanceStep() {
	if c.state != StepComplete {
		return
	}
	prog, ok := c.store.GetProgram(c.ctx.ProgramLabel)
	if !ok {
		c.state = ProgramComplete
		c.scr.Clear()
		c.scr.SetRow(0, "program complete")
		return
	}
	if c.ctx.StepIndex+1 >= len(prog.Steps) {
		c.motor.Enable(false)
		c.state = ProgramComplete
		c.scr.Clear()
		c.scr.SetRow(0, "program complete")
		return
	}
	c.ctx.StepIndex++
	if !c.beginStep(prog) {
		c.state = ProgramComplete
		c.scr.Clear()
		c.scr.SetRow(0, "program complete")
		return
	}
	c.state = Running
}

func (c *Controller) stepProgramComplete(ev Event) {
	if ev.Kind == EvSelectProgram {
		c.selectProgram(ev.Program)
	}
}

// stepAutotuning tracks only what the Controller itself must: the
// heater.Autotune run's lifecycle is driven directly by cmd/isochron
// wiring, and HeaterMayRun() already returns true for this state so the
// heater's safety overlay permits the relay to drive. AcknowledgeError
// (the autotune having reported AutotuneAborted through the Safety
// Monitor) is handled by the any-state ErrorDetected/Error path, not here.
func (c *Controller) stepAutotuning(ev Event) {
	if ev.Kind == EvUserConfirm {
		c.state = Idle
		c.scr.Clear()
	}
}

func (c *Controller) stepError(ev Event) {
	if ev.Kind != EvAcknowledgeError {
		return
	}
	if c.ctx.Fault == safety.LinkLost {
		// "Recovery from LinkLost is only via power cycle" — spec.md §4.6.
		return
	}
	c.mon.Reset()
	c.ctx.Fault = safety.NoFault
	c.state = Idle
	c.scr.Clear()
}

// toError implements "any, ErrorDetected(k) -> motor & heater off ->
// Error(k)" (spec.md §4.7), within one scheduling cycle.
func (c *Controller) toError(kind safety.FaultKind) safety.FaultKind {
	c.motor.Stop()
	c.motor.Enable(false)
	c.sched.Abort()
	c.ctx.Fault = kind
	c.state = Error
	c.scr.Clear()
	c.scr.SetRow(0, "error")
	c.scr.SetRow(1, kind.String())
	if kind == safety.LinkLost {
		c.scr.SetRow(3, "power cycle required")
	} else {
		c.scr.SetRow(3, "press to acknowledge")
	}
	c.scr.Select(3)
	return kind
}

// toIdleViaAbort implements "any, Abort -> motor & heater off, reset
// scheduler -> Idle" (spec.md §4.7).
func (c *Controller) toIdleViaAbort() {
	c.motor.Stop()
	c.motor.Enable(false)
	c.sched.Abort()
	c.store.DiscardEdits()
	c.ctx = ExecutionContext{}
	c.state = Idle
	c.scr.Clear()
}

// tick advances the Scheduler and feeds the Motor Controller and Heater
// their periodic poll, translating Scheduler boundary events into the same
// transitions StepFinished/ProfileFinished events would (spec.md §4.7:
// "TICK (~100ms)"), then evaluates the Safety Monitor so a fault detected
// from any accumulated signal (temperature, debounced stall, reported
// link-loss) reaches Error within the same tick it first becomes true
// (spec.md §4.7: "An ErrorDetected event ... produces Error(kind) ... within
// one scheduling cycle").
func (c *Controller) tick(ev Event) (safety.FaultKind, bool) {
	c.motor.Poll(ev.DT)
	c.htr.Tick(ev.Now, ev.DT)

	switch c.sched.Tick(ev.DT) {
	case scheduler.StepFinished:
		c.advanceSegment()
	case scheduler.ProfileFinished:
		c.finishProfile()
	}

	if kind, ok := c.mon.Evaluate(); ok {
		return c.toError(kind), true
	}
	return safety.NoFault, false
}

// Screen returns the collaborating Screen composer so callers can Render
// it after a Step call (spec.md §4.7: "Emits: ... screen update").
func (c *Controller) Screen() *link.Screen { return c.scr }
