package admission

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, adm *Admission) error
	GetByID(ctx context.Context, id uuid.UUID) (*Admission, error)
	Update(ctx context.Context, adm *Admission) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Admission, int, error)

	// Treatments
	AddTreatment(ctx context.Context, t *Treatment) error
	GetTreatments(ctx context.Context, admissionID uuid.UUID) ([]*Treatment, error)

	// Diagnoses
	AddDiagnosis(ctx context.Context, d *Diagnosis) error
	GetDiagnoses(ctx context.Context, admissionID uuid.UUID) ([]*Diagnosis, error)

	// Lab results
	AddLabResult(ctx context.Context, lr *LabResult) error
	GetLabResults(ctx context.Context, admissionID uuid.UUID) ([]*LabResult, error)
}
