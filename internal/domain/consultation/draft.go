package consultation

import (
	"strings"
	"time"

	"github.com/foresight-cdss/consult/internal/domain/patient"
)

// Tab identifies which intake path the clinician is on.
type Tab string

const (
	TabExisting Tab = "existing"
	TabNew      Tab = "new"
)

// Draft holds the in-progress intake form state. It is transient: created
// when a session opens, mutated by edits, and discarded on close or once a
// successful submission converts it into a persisted patient/admission pair.
// Fields of both tabs are kept in memory so switching tabs loses nothing.
type Draft struct {
	Tab        Tab    `json:"tab"`
	SearchTerm string `json:"search_term"`

	// Existing-patient tab
	SelectedPatient *patient.Patient `json:"selected_patient,omitempty"`

	// New-patient tab
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Gender      string     `json:"gender"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`

	// Shared fields, always optional
	Reason          string     `json:"reason"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
}

// Validate returns the set of missing required fields for the active tab.
// It is evaluated at submission time only. Shared fields never fail.
func (d *Draft) Validate() map[string]bool {
	missing := make(map[string]bool)
	if d.Tab == TabExisting {
		if d.SelectedPatient == nil {
			missing["selected_patient"] = true
		}
		return missing
	}
	if strings.TrimSpace(d.FirstName) == "" {
		missing["first_name"] = true
	}
	if strings.TrimSpace(d.LastName) == "" {
		missing["last_name"] = true
	}
	if d.Gender == "" {
		missing["gender"] = true
	}
	return missing
}

// FieldPatch is a partial update to the draft. Nil pointers leave the
// corresponding field untouched.
type FieldPatch struct {
	SearchTerm      *string    `json:"search_term,omitempty"`
	FirstName       *string    `json:"first_name,omitempty"`
	LastName        *string    `json:"last_name,omitempty"`
	Gender          *string    `json:"gender,omitempty"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	Reason          *string    `json:"reason,omitempty"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
}

func (d *Draft) apply(patch FieldPatch) {
	if patch.SearchTerm != nil {
		d.SearchTerm = *patch.SearchTerm
	}
	if patch.FirstName != nil {
		d.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		d.LastName = *patch.LastName
	}
	if patch.Gender != nil {
		d.Gender = *patch.Gender
	}
	if patch.DateOfBirth != nil {
		d.DateOfBirth = patch.DateOfBirth
	}
	if patch.Reason != nil {
		d.Reason = *patch.Reason
	}
	if patch.ScheduledAt != nil {
		d.ScheduledAt = patch.ScheduledAt
	}
	if patch.DurationMinutes != nil {
		d.DurationMinutes = patch.DurationMinutes
	}
}
