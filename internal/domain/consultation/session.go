package consultation

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foresight-cdss/consult/internal/domain/admission"
	"github.com/foresight-cdss/consult/internal/domain/patient"
)

// AttentionDuration is how long the form signals invalid required fields
// after a rejected submission.
const AttentionDuration = 600 * time.Millisecond

var (
	ErrSessionClosed  = errors.New("consultation session is closed")
	ErrSubmitInFlight = errors.New("a submission is already in flight")
)

// CreatedFunc is invoked exactly once when a session's submission succeeds,
// before the session closes.
type CreatedFunc func(p *patient.Patient, adm *admission.Admission)

// Session is one open intake workflow. All state transitions go through the
// session's lock; the generation token lets a submission that completes
// after the session was dismissed detect staleness and become a no-op.
type Session struct {
	mu             sync.Mutex
	id             uuid.UUID
	open           bool
	generation     uint64
	notified       bool
	submitting     bool
	draft          Draft
	errors         map[string]bool
	attentionUntil time.Time
	onCreated      CreatedFunc

	now func() time.Time
}

func newSession(onCreated CreatedFunc) *Session {
	return &Session{
		id:        uuid.New(),
		open:      true,
		draft:     Draft{Tab: TabExisting},
		errors:    make(map[string]bool),
		onCreated: onCreated,
		now:       time.Now,
	}
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Close dismisses the session. The generation bump invalidates any
// submission still in flight.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	s.generation++
}

// SetTab switches the active intake path. Both tabs' fields are retained.
func (s *Session) SetTab(tab Tab) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrSessionClosed
	}
	s.draft.Tab = tab
	return nil
}

// Update applies a partial edit to the draft. Edits clear nothing and
// validate nothing; validation happens only on submit.
func (s *Session) Update(patch FieldPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrSessionClosed
	}
	s.draft.apply(patch)
	return nil
}

// SelectPatient records the chosen directory entry on the existing tab.
func (s *Session) SelectPatient(p *patient.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrSessionClosed
	}
	s.draft.SelectedPatient = p
	return nil
}

// ClearSelection returns the existing tab to search mode. The search term
// is kept so the previous result list reappears unchanged.
func (s *Session) ClearSelection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrSessionClosed
	}
	s.draft.SelectedPatient = nil
	return nil
}

// SetSearchTerm records the live directory filter.
func (s *Session) SetSearchTerm(term string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrSessionClosed
	}
	s.draft.SearchTerm = term
	return nil
}

// Draft returns a copy of the current form state.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Errors returns a copy of the missing-field set from the last rejected
// submission.
func (s *Session) Errors() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// AttentionActive reports whether the post-rejection highlight window is
// still running.
func (s *Session) AttentionActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Before(s.attentionUntil)
}

// beginSubmit snapshots the draft and the generation token for an attempt.
// Only one attempt may be in flight per session; the flag is released by
// failValidation, endSubmit, or complete.
func (s *Session) beginSubmit() (Draft, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return Draft{}, 0, ErrSessionClosed
	}
	if s.submitting {
		return Draft{}, 0, ErrSubmitInFlight
	}
	s.submitting = true
	return s.draft, s.generation, nil
}

// failValidation records the missing-field set and starts the attention
// window. The draft itself is untouched.
func (s *Session) failValidation(missing map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if !s.open {
		return
	}
	s.errors = missing
	s.attentionUntil = s.now().Add(AttentionDuration)
}

// endSubmit releases the in-flight flag after a failed attempt so the
// clinician can retry.
func (s *Session) endSubmit() {
	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()
}

// complete applies a successful submission. It reports false, doing
// nothing, when the session was dismissed (or already completed) while the
// attempt was in flight. On success the created callback fires exactly
// once, then the session closes.
func (s *Session) complete(gen uint64, p *patient.Patient, adm *admission.Admission) bool {
	s.mu.Lock()
	s.submitting = false
	if !s.open || s.generation != gen || s.notified {
		s.mu.Unlock()
		return false
	}
	s.notified = true
	s.open = false
	s.generation++
	cb := s.onCreated
	s.mu.Unlock()

	if cb != nil {
		cb(p, adm)
	}
	return true
}

// State is the wire representation of a session.
type State struct {
	ID        uuid.UUID       `json:"id"`
	Open      bool            `json:"open"`
	Draft     Draft           `json:"draft"`
	Errors    map[string]bool `json:"errors,omitempty"`
	Attention bool            `json:"attention"`
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := make(map[string]bool, len(s.errors))
	for k, v := range s.errors {
		errs[k] = v
	}
	return State{
		ID:        s.id,
		Open:      s.open,
		Draft:     s.draft,
		Errors:    errs,
		Attention: s.now().Before(s.attentionUntil),
	}
}

// Registry tracks open sessions by id.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*Session)}
}

// Open creates a fresh session starting on the existing-patient tab.
func (r *Registry) Open(onCreated CreatedFunc) *Session {
	s := newSession(onCreated)
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Close dismisses and removes a session. It reports whether the id was
// known.
func (r *Registry) Close(id uuid.UUID) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

// Remove drops a session that closed itself after a successful submission.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
