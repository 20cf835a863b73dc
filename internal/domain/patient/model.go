package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table.
type Patient struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	DisplayName       *string    `db:"display_name" json:"display_name,omitempty"`
	FirstName         string     `db:"first_name" json:"first_name"`
	LastName          string     `db:"last_name" json:"last_name"`
	Gender            *string    `db:"gender" json:"gender,omitempty"`
	BirthDate         *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Race              *string    `db:"race" json:"race,omitempty"`
	MaritalStatus     *string    `db:"marital_status" json:"marital_status,omitempty"`
	Language          *string    `db:"language" json:"language,omitempty"`
	PovertyPercentage *float64   `db:"poverty_percentage" json:"poverty_percentage,omitempty"`
	PhotoURL          *string    `db:"photo_url" json:"photo_url,omitempty"`
	PrimaryDiagnosis  *string    `db:"primary_diagnosis" json:"primary_diagnosis,omitempty"`
	GeneralReason     *string    `db:"general_reason" json:"general_reason,omitempty"`
	NextAppointment   *time.Time `db:"next_appointment" json:"next_appointment,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Label returns the human-readable label for the patient: the display name if
// set, otherwise "First Last", otherwise the ID.
func (p *Patient) Label() string {
	if p.DisplayName != nil && *p.DisplayName != "" {
		return *p.DisplayName
	}
	full := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if full != "" {
		return full
	}
	return p.ID.String()
}

// ComplexCaseAlert maps to the complex_case_alert table. Alerts flag patients
// whose presentation suggests an autoimmune, inflammatory, or oncology workup.
type ComplexCaseAlert struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	Msg               *string    `db:"msg" json:"msg,omitempty"`
	Type              *string    `db:"type" json:"type,omitempty"`
	Severity          string     `db:"severity" json:"severity"`
	Likelihood        *int       `db:"likelihood" json:"likelihood,omitempty"`
	TriggeringFactors []string   `db:"triggering_factors" json:"triggering_factors,omitempty"`
	SuggestedActions  []string   `db:"suggested_actions" json:"suggested_actions,omitempty"`
	Acknowledged      bool       `db:"acknowledged" json:"acknowledged"`
	AcknowledgedAt    *time.Time `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}
