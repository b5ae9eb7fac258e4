// Package profile implements the declarative cleaning-profile data model
// from spec.md §3: Profile, Spinoff and Program, their validity invariants,
// and a session-only edit overlay for ProgramSelected's EditParameter
// sub-state.
package profile

// Kind identifies what a Profile's jar does.
type Kind int

const (
	Clean Kind = iota
	Rinse
	Dry
)

func (k Kind) String() string {
	switch k {
	case Clean:
		return "clean"
	case Rinse:
		return "rinse"
	case Dry:
		return "dry"
	default:
		return "unknown"
	}
}

// Direction is the basket spin direction for a single segment or a whole
// non-alternating profile.
type Direction int

const (
	CW Direction = iota
	CCW
)

func (d Direction) Flip() Direction {
	if d == CW {
		return CCW
	}
	return CW
}

func (d Direction) String() string {
	if d == CW {
		return "cw"
	}
	return "ccw"
}

// ProfileDirection is the direction mode a Profile declares: a fixed
// direction, or an alternating sequence.
type ProfileDirection int

const (
	DirCW ProfileDirection = iota
	DirCCW
	DirAlternate
)

// MinSegmentTime is MIN_SEGMENT_TIME from spec.md's glossary: the
// firmware-enforced lower bound on any derived segment duration.
const MinSegmentTime = 10 // seconds

// Spinoff is the optional post-profile spin phase (spec.md §3).
type Spinoff struct {
	LiftMM int     // [5,50]
	RPM    float64 // [60,200]
	TimeS  int     // [5,30]
}

// Profile is one jar's declarative cleaning behavior (spec.md §3).
type Profile struct {
	Label       string // <=16 chars, unique within a Program's universe
	Kind        Kind
	RPM         float64 // [0,250]
	DurationS   int     // [1,5400]
	Direction   ProfileDirection
	Iterations  int      // required iff Direction == DirAlternate, >=1
	TempC       *int     // [30,50], required iff Kind==Dry, forbidden otherwise
	Spinoff     *Spinoff // nil => no spin-off
}

// Step is one (jar, profile) pairing in a Program.
type Step struct {
	Jar     string
	Profile string // profile label
}

// Program is an ordered list of jar/profile steps (spec.md §3).
type Program struct {
	Label string
	Steps []Step
}

// Program-level limits (spec.md §3 invariants).
const (
	MaxProfiles        = 8
	MaxStepsPerProgram = 16
	MaxTotalRuntimeS   = 90 * 60
)
