package admission

import (
	"time"

	"github.com/google/uuid"
)

// Admission maps to the admission table. One admission represents a single
// scheduled or actual clinical encounter for a patient.
type Admission struct {
	ID                     uuid.UUID  `db:"id" json:"id"`
	PatientID              uuid.UUID  `db:"patient_id" json:"patient_id"`
	ScheduledStart         time.Time  `db:"scheduled_start" json:"scheduled_start"`
	ScheduledEnd           *time.Time `db:"scheduled_end" json:"scheduled_end,omitempty"`
	ActualStart            *time.Time `db:"actual_start" json:"actual_start,omitempty"`
	ActualEnd              *time.Time `db:"actual_end" json:"actual_end,omitempty"`
	DurationMinutes        *int       `db:"duration_minutes" json:"duration_minutes,omitempty"`
	Reason                 *string    `db:"reason" json:"reason,omitempty"`
	Transcript             *string    `db:"transcript" json:"transcript,omitempty"`
	SOAPNote               *string    `db:"soap_note" json:"soap_note,omitempty"`
	PriorAuthJustification *string    `db:"prior_auth_justification" json:"prior_auth_justification,omitempty"`
	IsDeleted              bool       `db:"is_deleted" json:"is_deleted"`
	DeletedAt              *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// Treatment maps to the treatment table.
type Treatment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	AdmissionID uuid.UUID `db:"admission_id" json:"admission_id"`
	Drug        string    `db:"drug" json:"drug"`
	Status      string    `db:"status" json:"status"`
	Rationale   string    `db:"rationale" json:"rationale"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Diagnosis maps to the diagnosis table.
type Diagnosis struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	AdmissionID uuid.UUID `db:"admission_id" json:"admission_id"`
	Code        *string   `db:"code" json:"code,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// LabResult maps to the lab_result table.
type LabResult struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	AdmissionID    uuid.UUID  `db:"admission_id" json:"admission_id"`
	Name           string     `db:"name" json:"name"`
	Value          string     `db:"value" json:"value"`
	Units          *string    `db:"units" json:"units,omitempty"`
	TakenAt        *time.Time `db:"taken_at" json:"taken_at,omitempty"`
	ReferenceRange *string    `db:"reference_range" json:"reference_range,omitempty"`
	Flag           *string    `db:"flag" json:"flag,omitempty"`
}
