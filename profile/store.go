package profile

// Store holds the boot-loaded, immutable profile/program universe plus a
// session-only copy-on-write overlay for in-progress edits (spec.md §3:
// "may be edited in a session-only copy"). The overlay is consulted first
// by Get (programs are never edited, so GetProgram does not consult it);
// it is discarded on Abort or power cycle, never written back to the boot
// set.
type Store struct {
	profiles map[string]*Profile
	programs map[string]*Program

	editedProfiles map[string]*Profile
}

// NewStore builds a Store from the boot-loaded profiles and programs.
// Both maps are copied defensively; the caller's originals may be mutated
// afterward without affecting the Store.
func NewStore(profiles map[string]*Profile, programs map[string]*Program) *Store {
	s := &Store{
		profiles:       make(map[string]*Profile, len(profiles)),
		programs:       make(map[string]*Program, len(programs)),
		editedProfiles: make(map[string]*Profile),
	}
	for k, v := range profiles {
		cp := *v
		s.profiles[k] = &cp
	}
	for k, v := range programs {
		s.programs[k] = v
	}
	return s
}

// Get returns the profile for label, preferring a session-only edited copy
// over the boot-loaded original.
func (s *Store) Get(label string) (*Profile, bool) {
	if p, ok := s.editedProfiles[label]; ok {
		return p, true
	}
	p, ok := s.profiles[label]
	return p, ok
}

// GetProgram returns the boot-loaded program for label. Programs
// themselves are never edited, only the profiles they reference.
func (s *Store) GetProgram(label string) (*Program, bool) {
	p, ok := s.programs[label]
	return p, ok
}

// BeginEdit returns a session-only copy of the named profile for the
// Controller's EditParameter sub-state to mutate. The copy is installed in
// the overlay at once, so Get returns it, with any changes made to it,
// from then on. The boot-loaded original is never modified.
func (s *Store) BeginEdit(label string) (*Profile, bool) {
	base, ok := s.Get(label)
	if !ok {
		return nil, false
	}
	cp := *base
	if base.TempC != nil {
		t := *base.TempC
		cp.TempC = &t
	}
	if base.Spinoff != nil {
		sp := *base.Spinoff
		cp.Spinoff = &sp
	}
	s.editedProfiles[label] = &cp
	return &cp, true
}

// CommitEdit validates the session-only copy and, if valid, makes it the
// profile future Get calls return. An invalid edit is rejected with an
// error and the overlay is left as it is; a copy opened by BeginEdit and
// changed in place therefore stays what Get returns until DiscardEdits.
func (s *Store) CommitEdit(label string, edited *Profile) error {
	if err := Validate(edited); err != nil {
		return err
	}
	s.editedProfiles[label] = edited
	return nil
}

// DiscardEdits clears all session-only edits, reverting to the
// boot-loaded profile set. Called on Abort (spec.md §4.7: "any -> Abort ->
// Idle") so a new session starts from a clean slate.
func (s *Store) DiscardEdits() {
	s.editedProfiles = make(map[string]*Profile)
}

// Profiles returns the effective profile set (boot-loaded, with any
// session edits applied), keyed by label. Used by ValidateProgram at
// Start.
func (s *Store) Profiles() map[string]*Profile {
	out := make(map[string]*Profile, len(s.profiles))
	for k, v := range s.profiles {
		out[k] = v
	}
	for k, v := range s.editedProfiles {
		out[k] = v
	}
	return out
}
