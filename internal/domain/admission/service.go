package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateAdmission persists a new admission. A missing scheduled start defaults
// to now (UTC); when a duration is given the scheduled end is derived from it.
func (s *Service) CreateAdmission(ctx context.Context, adm *Admission) error {
	if adm.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if adm.ScheduledStart.IsZero() {
		adm.ScheduledStart = time.Now().UTC()
	}
	if adm.DurationMinutes != nil && adm.ScheduledEnd == nil {
		end := adm.ScheduledStart.Add(time.Duration(*adm.DurationMinutes) * time.Minute)
		adm.ScheduledEnd = &end
	}
	return s.repo.Create(ctx, adm)
}

func (s *Service) GetAdmission(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateAdmission(ctx context.Context, adm *Admission) error {
	if adm.ID == uuid.Nil {
		return fmt.Errorf("id is required")
	}
	return s.repo.Update(ctx, adm)
}

func (s *Service) DeleteAdmission(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) RestoreAdmission(ctx context.Context, id uuid.UUID) error {
	return s.repo.Restore(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Admission, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) AddTreatment(ctx context.Context, t *Treatment) error {
	if t.AdmissionID == uuid.Nil {
		return fmt.Errorf("admission_id is required")
	}
	if t.Drug == "" {
		return fmt.Errorf("drug is required")
	}
	return s.repo.AddTreatment(ctx, t)
}

func (s *Service) GetTreatments(ctx context.Context, admissionID uuid.UUID) ([]*Treatment, error) {
	return s.repo.GetTreatments(ctx, admissionID)
}

func (s *Service) AddDiagnosis(ctx context.Context, d *Diagnosis) error {
	if d.PatientID == uuid.Nil || d.AdmissionID == uuid.Nil {
		return fmt.Errorf("patient_id and admission_id are required")
	}
	return s.repo.AddDiagnosis(ctx, d)
}

func (s *Service) GetDiagnoses(ctx context.Context, admissionID uuid.UUID) ([]*Diagnosis, error) {
	return s.repo.GetDiagnoses(ctx, admissionID)
}

func (s *Service) AddLabResult(ctx context.Context, lr *LabResult) error {
	if lr.PatientID == uuid.Nil || lr.AdmissionID == uuid.Nil {
		return fmt.Errorf("patient_id and admission_id are required")
	}
	if lr.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.repo.AddLabResult(ctx, lr)
}

func (s *Service) GetLabResults(ctx context.Context, admissionID uuid.UUID) ([]*LabResult, error) {
	return s.repo.GetLabResults(ctx, admissionID)
}
