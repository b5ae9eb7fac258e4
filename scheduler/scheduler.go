// Package scheduler implements the Scheduler (spec.md §4.4): it expands a
// Profile into an ordered list of Segments at Start time, then owns all
// profile timekeeping as a plain reducer driven by an externally supplied
// clock, emitting StepFinished/ProfileFinished events at segment and
// profile boundaries.
package scheduler

import (
	"github.com/pkg/errors"

	"github.com/isochron-fw/isochron/profile"
)

// ErrIndivisibleProfile is returned by Expand when an alternate-direction
// profile's time_s does not divide evenly into 2*iterations segments of at
// least profile.MinSegmentTime seconds each. Per the Open Question decision
// recorded in SPEC_FULL.md, such profiles are rejected outright rather than
// distributing the remainder across segments.
var ErrIndivisibleProfile = errors.New("scheduler: profile duration does not divide evenly into segments of at least the minimum segment time")

// Segment is the Segment entity from spec.md §3: "direction∈{cw,ccw},
// duration_s; derived from Profile at Start; consumed in order."
type Segment struct {
	Direction profile.Direction
	DurationS int
}

// Expand turns a Profile into its ordered Segment list (spec.md §4.4). It is
// pure and idempotent: calling it twice on the same Profile yields identical
// results.
//
// direction=cw or ccw produces a single segment spanning the whole
// profile. direction=alternate produces 2*iterations segments, alternating
// starting with cw, each of duration time_s/(2*iterations) — rejecting the
// profile with ErrIndivisibleProfile if that division is not exact or
// leaves segments shorter than profile.MinSegmentTime.
func Expand(p *profile.Profile) ([]Segment, error) {
	if p == nil {
		return nil, errors.New("scheduler: nil profile")
	}

	if p.Direction != profile.DirAlternate {
		dir := profile.CW
		if p.Direction == profile.DirCCW {
			dir = profile.CCW
		}
		return []Segment{{Direction: dir, DurationS: p.DurationS}}, nil
	}

	segCount := 2 * p.Iterations
	if segCount <= 0 {
		return nil, errors.New("scheduler: alternate profile requires iterations >= 1")
	}
	if p.DurationS%segCount != 0 {
		return nil, errors.Wrapf(ErrIndivisibleProfile, "time_s=%d does not divide evenly by %d segments", p.DurationS, segCount)
	}
	segDuration := p.DurationS / segCount
	if segDuration < profile.MinSegmentTime {
		return nil, errors.Wrapf(ErrIndivisibleProfile, "per-segment duration %ds is below the %ds minimum", segDuration, profile.MinSegmentTime)
	}

	segments := make([]Segment, segCount)
	dir := profile.CW
	for i := 0; i < segCount; i++ {
		segments[i] = Segment{Direction: dir, DurationS: segDuration}
		dir = dir.Flip()
	}
	return segments, nil
}

// Event is emitted by Tick at segment and profile boundaries.
type Event int

const (
	// NoEvent means the tick produced no boundary crossing.
	NoEvent Event = iota
	// StepFinished means the current segment (SegmentIndex, before
	// advancing) reached its duration.
	StepFinished
	// ProfileFinished means the final segment finished; the Scheduler has
	// returned itself to Idle.
	ProfileFinished
)

// Phase is the Scheduler's own run state, distinct from the Controller's
// MachineState.
type Phase int

const (
	Idle Phase = iota
	Running
	Paused
)

// Scheduler owns one expanded Profile's segment list and timekeeping. It is
// expressed as next(state, dt) -> (state', event) (spec.md §9): real time
// enters only through the dt argument supplied by the caller, so it is
// unit-testable without timers.
type Scheduler struct {
	segments []Segment
	index    int
	elapsedS float64
	phase    Phase
}

// New constructs an idle Scheduler with no profile loaded.
func New() *Scheduler {
	return &Scheduler{phase: Idle}
}

// Start expands profile p and begins running its first segment (spec.md
// §4.4: "Expands a Profile into Segments at Start time").
func (s *Scheduler) Start(p *profile.Profile) error {
	segments, err := Expand(p)
	if err != nil {
		return err
	}
	s.segments = segments
	s.index = 0
	s.elapsedS = 0
	s.phase = Running
	return nil
}

// Tick advances elapsed-in-segment by dt seconds and reports any boundary
// event crossed. Only one event is ever reported per call even if dt spans
// more than one segment's remaining time; callers drive Tick at a
// sufficiently fine cadence (spec.md's ~100ms TICK) that this never matters
// in practice.
func (s *Scheduler) Tick(dt float64) Event {
	if s.phase != Running {
		return NoEvent
	}
	if s.index >= len(s.segments) {
		s.phase = Idle
		return NoEvent
	}

	s.elapsedS += dt
	cur := s.segments[s.index]
	if s.elapsedS < float64(cur.DurationS) {
		return NoEvent
	}

	s.index++
	s.elapsedS = 0
	if s.index >= len(s.segments) {
		s.phase = Idle
		return ProfileFinished
	}
	return StepFinished
}

// Pause freezes the elapsed-in-segment counter (spec.md §4.4: "Pause:
// freezes elapsed counters").
func (s *Scheduler) Pause() {
	if s.phase == Running {
		s.phase = Paused
	}
}

// Resume continues from the frozen elapsed-in-segment counter (spec.md
// §4.4: "on Resume, remaining-in-segment is preserved; the motor must
// re-accelerate to target"). Re-acceleration is the Controller/Motor
// Controller's concern, not the Scheduler's.
func (s *Scheduler) Resume() {
	if s.phase == Paused {
		s.phase = Running
	}
}

// Abort resets all counters and returns to Idle, emitting no event (spec.md
// §4.4: "Abort: resets all counters, emits no event").
func (s *Scheduler) Abort() {
	s.segments = nil
	s.index = 0
	s.elapsedS = 0
	s.phase = Idle
}

// Phase reports the Scheduler's own run state.
func (s *Scheduler) Phase() Phase { return s.phase }

// SegmentIndex reports the index of the segment currently (or most
// recently, if Idle) in progress.
func (s *Scheduler) SegmentIndex() int { return s.index }

// CurrentSegment returns the segment in progress and whether one exists.
func (s *Scheduler) CurrentSegment() (Segment, bool) {
	if s.index < 0 || s.index >= len(s.segments) {
		return Segment{}, false
	}
	return s.segments[s.index], true
}

// RemainingInSegment reports the seconds left in the current segment.
func (s *Scheduler) RemainingInSegment() float64 {
	cur, ok := s.CurrentSegment()
	if !ok {
		return 0
	}
	rem := float64(cur.DurationS) - s.elapsedS
	if rem < 0 {
		return 0
	}
	return rem
}

// SegmentCount reports the total number of segments in the loaded profile.
func (s *Scheduler) SegmentCount() int { return len(s.segments) }
