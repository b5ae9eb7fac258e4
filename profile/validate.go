package profile

import (
	"github.com/pkg/errors"
)

// Validate checks one Profile against spec.md §3's invariants. It never
// panics on bad input — malformed profiles are reported as InvalidProfile
// at boot or at Start, never mid-run (spec.md §7).
func Validate(p *Profile) error {
	if p == nil {
		return errors.New("profile: nil profile")
	}
	if len(p.Label) == 0 || len(p.Label) > 16 {
		return errors.Errorf("profile %q: label must be 1-16 chars, got %d", p.Label, len(p.Label))
	}
	if p.RPM < 0 || p.RPM > 250 {
		return errors.Errorf("profile %q: rpm must be in [0,250], got %v", p.Label, p.RPM)
	}
	if p.DurationS < 1 || p.DurationS > 5400 {
		return errors.Errorf("profile %q: duration_s must be in [1,5400], got %d", p.Label, p.DurationS)
	}

	switch p.Kind {
	case Dry:
		if p.TempC == nil {
			return errors.Errorf("profile %q: kind=dry requires temperature_c", p.Label)
		}
	case Clean, Rinse:
		if p.TempC != nil {
			return errors.Errorf("profile %q: kind=%s forbids temperature_c", p.Label, p.Kind)
		}
	default:
		return errors.Errorf("profile %q: unknown kind %v", p.Label, p.Kind)
	}
	if p.TempC != nil && (*p.TempC < 30 || *p.TempC > 50) {
		return errors.Errorf("profile %q: temperature_c must be in [30,50], got %d", p.Label, *p.TempC)
	}

	if p.Direction == DirAlternate {
		if p.Iterations < 1 {
			return errors.Errorf("profile %q: direction=alternate requires iterations>=1, got %d", p.Label, p.Iterations)
		}
		segs := 2 * p.Iterations
		if p.DurationS%segs != 0 {
			return errors.Errorf("profile %q: time_s=%d not evenly divisible by 2*iterations=%d (open question (b): rejected, no residual distribution)", p.Label, p.DurationS, segs)
		}
		if p.DurationS/segs < MinSegmentTime {
			return errors.Errorf("profile %q: derived segment duration %ds < MIN_SEGMENT_TIME %ds", p.Label, p.DurationS/segs, MinSegmentTime)
		}
	} else if p.Iterations != 0 {
		return errors.Errorf("profile %q: iterations only meaningful for direction=alternate", p.Label)
	}

	if p.Spinoff != nil {
		if err := validateSpinoff(p.Spinoff); err != nil {
			return errors.Wrapf(err, "profile %q", p.Label)
		}
	}
	return nil
}

func validateSpinoff(s *Spinoff) error {
	if s.LiftMM < 5 || s.LiftMM > 50 {
		return errors.Errorf("spinoff: lift_mm must be in [5,50], got %d", s.LiftMM)
	}
	if s.RPM < 60 || s.RPM > 200 {
		return errors.Errorf("spinoff: rpm must be in [60,200], got %v", s.RPM)
	}
	if s.TimeS < 5 || s.TimeS > 30 {
		return errors.Errorf("spinoff: time_s must be in [5,30], got %d", s.TimeS)
	}
	return nil
}

// ValidateProgram validates a Program against the profile set it
// references: every step's profile must exist and validate, the program
// must not exceed MaxStepsPerProgram, the profile set passed in (not only
// the profiles the program references) must not exceed MaxProfiles, and
// total runtime (sum of each step's profile
// duration, plus any spin-off time) must not exceed MaxTotalRuntimeS.
func ValidateProgram(prog *Program, profiles map[string]*Profile) error {
	if prog == nil {
		return errors.New("program: nil program")
	}
	if len(prog.Steps) == 0 {
		return errors.Errorf("program %q: must have at least one step", prog.Label)
	}
	if len(prog.Steps) > MaxStepsPerProgram {
		return errors.Errorf("program %q: %d steps exceeds max %d", prog.Label, len(prog.Steps), MaxStepsPerProgram)
	}
	if len(profiles) > MaxProfiles {
		return errors.Errorf("program %q: %d profiles exceeds max %d", prog.Label, len(profiles), MaxProfiles)
	}

	total := 0
	for _, step := range prog.Steps {
		p, ok := profiles[step.Profile]
		if !ok {
			return errors.Errorf("program %q: step %q references unknown profile %q", prog.Label, step.Jar, step.Profile)
		}
		if err := Validate(p); err != nil {
			return errors.Wrapf(err, "program %q step %q", prog.Label, step.Jar)
		}
		total += p.DurationS
		if p.Spinoff != nil {
			total += p.Spinoff.TimeS
		}
	}
	if total > MaxTotalRuntimeS {
		return errors.Errorf("program %q: total runtime %ds exceeds max %ds", prog.Label, total, MaxTotalRuntimeS)
	}
	return nil
}
