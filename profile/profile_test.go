package profile_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/isochron-fw/isochron/profile"
)

func intp(v int) *int { return &v }

func validProfile() *profile.Profile {
	return &profile.Profile{
		Label:     "clean",
		Kind:      profile.Clean,
		RPM:       120,
		DurationS: 180,
		Direction: profile.DirAlternate,
		Iterations: 3,
	}
}

func TestValidate_Happy(t *testing.T) {
	c := qt.New(t)
	c.Assert(profile.Validate(validProfile()), qt.IsNil)
}

func TestValidate_DryRequiresTemp(t *testing.T) {
	c := qt.New(t)
	p := validProfile()
	p.Kind = profile.Dry
	p.Direction = profile.DirCW
	p.Iterations = 0
	c.Assert(profile.Validate(p), qt.ErrorMatches, ".*requires temperature_c.*")

	p.TempC = intp(45)
	c.Assert(profile.Validate(p), qt.IsNil)
}

func TestValidate_NonDryForbidsTemp(t *testing.T) {
	c := qt.New(t)
	p := validProfile()
	p.Direction = profile.DirCW
	p.Iterations = 0
	p.TempC = intp(40)
	c.Assert(profile.Validate(p), qt.ErrorMatches, ".*forbids temperature_c.*")
}

func TestValidate_TempRange(t *testing.T) {
	c := qt.New(t)
	p := validProfile()
	p.Kind = profile.Dry
	p.Direction = profile.DirCW
	p.Iterations = 0
	p.TempC = intp(29)
	c.Assert(profile.Validate(p), qt.ErrorMatches, ".*temperature_c must be in.*")
	p.TempC = intp(51)
	c.Assert(profile.Validate(p), qt.ErrorMatches, ".*temperature_c must be in.*")
}

func TestValidate_AlternateRequiresIterations(t *testing.T) {
	c := qt.New(t)
	p := validProfile()
	p.Iterations = 0
	c.Assert(profile.Validate(p), qt.ErrorMatches, ".*iterations>=1.*")
}

func TestValidate_IndivisibleRejected(t *testing.T) {
	// Boundary case from spec.md §8: iterations=1, time_s=19 -> 19/2 not integer.
	c := qt.New(t)
	p := validProfile()
	p.Iterations = 1
	p.DurationS = 19
	c.Assert(profile.Validate(p), qt.ErrorMatches, ".*not evenly divisible.*")
}

func TestValidate_MinSegmentTimeEnforced(t *testing.T) {
	// iterations=1, time_s/2 < 10 -> rejected even though evenly divisible.
	c := qt.New(t)
	p := validProfile()
	p.Iterations = 1
	p.DurationS = 18
	c.Assert(profile.Validate(p), qt.ErrorMatches, ".*MIN_SEGMENT_TIME.*")
}

func TestValidate_RPMRange(t *testing.T) {
	c := qt.New(t)
	p := validProfile()
	p.RPM = 251
	c.Assert(profile.Validate(p), qt.ErrorMatches, ".*rpm must be in.*")
}

func TestValidate_Spinoff(t *testing.T) {
	c := qt.New(t)
	p := validProfile()
	p.Spinoff = &profile.Spinoff{LiftMM: 20, RPM: 150, TimeS: 10}
	c.Assert(profile.Validate(p), qt.IsNil)

	p.Spinoff.TimeS = 31
	c.Assert(profile.Validate(p), qt.ErrorMatches, ".*time_s must be in.*")
}

func TestValidateProgram(t *testing.T) {
	c := qt.New(t)
	clean := validProfile()
	rinse := &profile.Profile{Label: "rinse", Kind: profile.Rinse, RPM: 100, DurationS: 120, Direction: profile.DirCW}
	profiles := map[string]*profile.Profile{"clean": clean, "rinse": rinse}
	prog := &profile.Program{
		Label: "quick_clean",
		Steps: []profile.Step{{Jar: "clean", Profile: "clean"}, {Jar: "rinse1", Profile: "rinse"}},
	}
	c.Assert(profile.ValidateProgram(prog, profiles), qt.IsNil)
}

func TestValidateProgram_UnknownProfile(t *testing.T) {
	c := qt.New(t)
	prog := &profile.Program{Label: "p", Steps: []profile.Step{{Jar: "clean", Profile: "missing"}}}
	c.Assert(profile.ValidateProgram(prog, map[string]*profile.Profile{}), qt.ErrorMatches, ".*unknown profile.*")
}

func TestValidateProgram_TooManySteps(t *testing.T) {
	c := qt.New(t)
	clean := validProfile()
	clean.Direction = profile.DirCW
	clean.Iterations = 0
	profiles := map[string]*profile.Profile{"clean": clean}
	steps := make([]profile.Step, profile.MaxStepsPerProgram+1)
	for i := range steps {
		steps[i] = profile.Step{Jar: "j", Profile: "clean"}
	}
	prog := &profile.Program{Label: "p", Steps: steps}
	c.Assert(profile.ValidateProgram(prog, profiles), qt.ErrorMatches, ".*exceeds max.*")
}

func TestStore_EditSessionOnly(t *testing.T) {
	c := qt.New(t)
	clean := validProfile()
	s := profile.NewStore(map[string]*profile.Profile{"clean": clean}, nil)

	edit, ok := s.BeginEdit("clean")
	c.Assert(ok, qt.IsTrue)
	edit.RPM = 200
	c.Assert(s.CommitEdit("clean", edit), qt.IsNil)

	got, _ := s.Get("clean")
	c.Assert(got.RPM, qt.Equals, 200.0)

	s.DiscardEdits()
	got, _ = s.Get("clean")
	c.Assert(got.RPM, qt.Equals, 120.0)
}
