package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)

	// All returns the full directory ordered by creation time. It backs the
	// in-memory directory used by the intake workflow.
	All(ctx context.Context) ([]*Patient, error)

	// Alerts
	GetAlerts(ctx context.Context, patientID uuid.UUID) ([]*ComplexCaseAlert, error)
	AcknowledgeAlert(ctx context.Context, id uuid.UUID) error
}
