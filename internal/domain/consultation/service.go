package consultation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/foresight-cdss/consult/internal/domain/admission"
	"github.com/foresight-cdss/consult/internal/domain/patient"
	"github.com/foresight-cdss/consult/internal/platform/ws"
)

// TxRunner executes fn atomically. The production wiring closes over the
// database pool; tests substitute a passthrough.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// PassthroughTx runs fn directly with no transaction.
func PassthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ValidationError carries the missing required fields of a rejected
// submission.
type ValidationError struct {
	Fields map[string]bool
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	return "missing required fields: " + strings.Join(names, ", ")
}

// Created is the outcome of a successful submission.
type Created struct {
	Patient    *patient.Patient     `json:"patient"`
	Admission  *admission.Admission `json:"admission"`
	NavigateTo string               `json:"navigate_to"`
}

// Service orchestrates intake submissions: it validates the draft, creates
// the admission (and, on the new-patient path, the patient atomically with
// it), then resolves the session.
type Service struct {
	patients   patient.Repository
	admissions *admission.Service
	directory  *patient.Directory
	registry   *Registry
	runTx      TxRunner
	publisher  ws.Publisher
	logger     zerolog.Logger
}

func NewService(
	patients patient.Repository,
	admissions *admission.Service,
	directory *patient.Directory,
	registry *Registry,
	runTx TxRunner,
	publisher ws.Publisher,
	logger zerolog.Logger,
) *Service {
	if runTx == nil {
		runTx = PassthroughTx
	}
	return &Service{
		patients:   patients,
		admissions: admissions,
		directory:  directory,
		registry:   registry,
		runTx:      runTx,
		publisher:  publisher,
		logger:     logger,
	}
}

func (s *Service) Registry() *Registry {
	return s.registry
}

// SearchPatients records the live filter on the session and returns the
// matching directory entries. The first call triggers the directory load.
func (s *Service) SearchPatients(ctx context.Context, sess *Session, term string) ([]*patient.Patient, error) {
	if err := sess.SetSearchTerm(term); err != nil {
		return nil, err
	}
	if err := s.directory.EnsureLoaded(ctx); err != nil {
		return nil, fmt.Errorf("load patient directory: %w", err)
	}
	return s.directory.Search(term), nil
}

// SelectPatient resolves a directory id and pins it on the session.
func (s *Service) SelectPatient(ctx context.Context, sess *Session, id string) (*patient.Patient, error) {
	if err := s.directory.EnsureLoaded(ctx); err != nil {
		return nil, fmt.Errorf("load patient directory: %w", err)
	}
	p := s.directory.Get(id)
	if p == nil {
		return nil, fmt.Errorf("patient %s not in directory", id)
	}
	if err := sess.SelectPatient(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Submit runs one submission attempt against the session's current draft.
// Only one attempt may be in flight per session; an overlapping call gets
// ErrSubmitInFlight. A draft failing validation gets a ValidationError and
// no collaborator is called. A persistence failure leaves the session open with the draft
// intact. On success the session's created callback fires exactly once and
// the session closes; if the session was dismissed while the attempt was in
// flight, the records still exist but no session-side effect happens.
func (s *Service) Submit(ctx context.Context, sess *Session) (*Created, error) {
	draft, gen, err := sess.beginSubmit()
	if err != nil {
		return nil, err
	}

	if missing := draft.Validate(); len(missing) > 0 {
		sess.failValidation(missing)
		return nil, &ValidationError{Fields: missing}
	}

	var created *Created
	switch draft.Tab {
	case TabNew:
		created, err = s.createPatientWithAdmission(ctx, draft)
	default:
		created, err = s.createAdmission(ctx, draft)
	}
	if err != nil {
		sess.endSubmit()
		s.logger.Error().Err(err).
			Str("session_id", sess.ID().String()).
			Str("tab", string(draft.Tab)).
			Msg("consultation submission failed")
		return nil, err
	}

	applied := sess.complete(gen, created.Patient, created.Admission)
	if applied {
		s.registry.Remove(sess.ID())
	} else {
		s.logger.Debug().
			Str("session_id", sess.ID().String()).
			Msg("session dismissed before submission completed")
	}

	if s.publisher != nil {
		evt := ws.Event{
			Type:        ws.EventConsultationCreated,
			Topic:       ws.TopicConsultations,
			PatientID:   created.Patient.ID.String(),
			AdmissionID: created.Admission.ID.String(),
			Timestamp:   time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Warn().Err(err).Msg("publish consultation.created")
		}
	}

	return created, nil
}

func (s *Service) createAdmission(ctx context.Context, draft Draft) (*Created, error) {
	adm := admissionFromDraft(draft, draft.SelectedPatient.ID)
	if err := s.admissions.CreateAdmission(ctx, adm); err != nil {
		return nil, fmt.Errorf("create admission: %w", err)
	}
	return &Created{
		Patient:    draft.SelectedPatient,
		Admission:  adm,
		NavigateTo: navigateTo(draft.SelectedPatient.ID.String(), adm.ID.String()),
	}, nil
}

func (s *Service) createPatientWithAdmission(ctx context.Context, draft Draft) (*Created, error) {
	p := &patient.Patient{
		FirstName: strings.TrimSpace(draft.FirstName),
		LastName:  strings.TrimSpace(draft.LastName),
	}
	if draft.Gender != "" {
		g := draft.Gender
		p.Gender = &g
	}
	if draft.DateOfBirth != nil {
		dob := dateOnly(*draft.DateOfBirth)
		p.BirthDate = &dob
	}

	var adm *admission.Admission
	err := s.runTx(ctx, func(ctx context.Context) error {
		if err := s.patients.Create(ctx, p); err != nil {
			return fmt.Errorf("create patient: %w", err)
		}
		adm = admissionFromDraft(draft, p.ID)
		if err := s.admissions.CreateAdmission(ctx, adm); err != nil {
			return fmt.Errorf("create admission: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.directory != nil {
		s.directory.Add(p)
	}

	return &Created{
		Patient:    p,
		Admission:  adm,
		NavigateTo: navigateTo(p.ID.String(), adm.ID.String()),
	}, nil
}

func admissionFromDraft(draft Draft, patientID uuid.UUID) *admission.Admission {
	adm := &admission.Admission{PatientID: patientID}
	if draft.ScheduledAt != nil {
		adm.ScheduledStart = *draft.ScheduledAt
	}
	if draft.DurationMinutes != nil {
		d := *draft.DurationMinutes
		adm.DurationMinutes = &d
	}
	if r := strings.TrimSpace(draft.Reason); r != "" {
		adm.Reason = &r
	}
	return adm
}

// dateOnly strips the clock so the birth date persists as a calendar date.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func navigateTo(patientID, admissionID string) string {
	return fmt.Sprintf("/patients/%s?ad=%s", patientID, admissionID)
}
