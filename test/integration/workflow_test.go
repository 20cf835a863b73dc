package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/foresight-cdss/consult/internal/domain/admission"
	"github.com/foresight-cdss/consult/internal/domain/consultation"
	"github.com/foresight-cdss/consult/internal/domain/patient"
	"github.com/foresight-cdss/consult/internal/platform/db"
)

func newConsultService(t *testing.T) (*consultation.Service, patient.Repository, admission.Repository) {
	t.Helper()
	patientRepo := patient.NewRepo(globalDB.Pool)
	admissionRepo := admission.NewRepo(globalDB.Pool)
	runTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, globalDB.Pool, fn)
	}
	svc := consultation.NewService(
		patientRepo,
		admission.NewService(admissionRepo),
		patient.NewDirectory(patientRepo),
		consultation.NewRegistry(),
		runTx,
		nil,
		zerolog.Nop(),
	)
	return svc, patientRepo, admissionRepo
}

func TestPatientCRUD(t *testing.T) {
	ctx := context.Background()
	repo := patient.NewRepo(globalDB.Pool)

	p := &patient.Patient{
		FirstName:   "Iris",
		LastName:    "Marlowe",
		Gender:      ptrStr("female"),
		DisplayName: ptrStr("Iris M."),
		Language:    ptrStr("en"),
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Fatal("expected non-nil ID after create")
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get patient: %v", err)
	}
	if got.FirstName != "Iris" || got.DisplayName == nil || *got.DisplayName != "Iris M." {
		t.Errorf("round trip mismatch: %+v", got)
	}

	got.PrimaryDiagnosis = ptrStr("hypertension")
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update patient: %v", err)
	}
	again, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("reload patient: %v", err)
	}
	if again.PrimaryDiagnosis == nil || *again.PrimaryDiagnosis != "hypertension" {
		t.Errorf("update not persisted: %+v", again)
	}
}

func TestAdmissionSoftDelete(t *testing.T) {
	ctx := context.Background()
	patientRepo := patient.NewRepo(globalDB.Pool)
	admissionRepo := admission.NewRepo(globalDB.Pool)

	p := &patient.Patient{FirstName: "Sol", LastName: "Berg"}
	if err := patientRepo.Create(ctx, p); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	adm := &admission.Admission{
		PatientID:      p.ID,
		ScheduledStart: time.Now().UTC(),
		Reason:         ptrStr("annual exam"),
	}
	if err := admissionRepo.Create(ctx, adm); err != nil {
		t.Fatalf("create admission: %v", err)
	}

	if err := admissionRepo.SoftDelete(ctx, adm.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := admissionRepo.GetByID(ctx, adm.ID); err == nil {
		t.Error("soft-deleted admission should not be readable")
	}
	if err := admissionRepo.Restore(ctx, adm.ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, err := admissionRepo.GetByID(ctx, adm.ID); err != nil {
		t.Errorf("restored admission should be readable: %v", err)
	}
}

func TestIntakeExistingPatientWorkflow(t *testing.T) {
	ctx := context.Background()
	svc, patientRepo, admissionRepo := newConsultService(t)

	p := &patient.Patient{FirstName: "Nadia", LastName: "Okafor", Gender: ptrStr("female")}
	if err := patientRepo.Create(ctx, p); err != nil {
		t.Fatalf("create patient: %v", err)
	}

	sess := svc.Registry().Open(nil)
	results, err := svc.SearchPatients(ctx, sess, "okaf")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	found := false
	for _, r := range results {
		if r.ID == p.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("directory search missed the seeded patient")
	}

	if _, err := svc.SelectPatient(ctx, sess, p.ID.String()); err != nil {
		t.Fatalf("select patient: %v", err)
	}
	if err := sess.Update(consultation.FieldPatch{Reason: ptrStr("persistent cough")}); err != nil {
		t.Fatalf("update draft: %v", err)
	}

	created, err := svc.Submit(ctx, sess)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	adm, err := admissionRepo.GetByID(ctx, created.Admission.ID)
	if err != nil {
		t.Fatalf("read created admission: %v", err)
	}
	if adm.PatientID != p.ID {
		t.Errorf("admission linked to %s, want %s", adm.PatientID, p.ID)
	}
	if adm.Reason == nil || *adm.Reason != "persistent cough" {
		t.Errorf("reason not persisted: %+v", adm)
	}
}

func TestIntakeNewPatientWorkflow(t *testing.T) {
	ctx := context.Background()
	svc, patientRepo, admissionRepo := newConsultService(t)

	sess := svc.Registry().Open(nil)
	if err := sess.SetTab(consultation.TabNew); err != nil {
		t.Fatal(err)
	}
	dob := time.Date(2019, 11, 7, 0, 0, 0, 0, time.UTC)
	dur := 30
	err := sess.Update(consultation.FieldPatch{
		FirstName:       ptrStr("Teo"),
		LastName:        ptrStr("Valdez"),
		Gender:          ptrStr("male"),
		DateOfBirth:     &dob,
		DurationMinutes: &dur,
	})
	if err != nil {
		t.Fatal(err)
	}

	created, err := svc.Submit(ctx, sess)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	p, err := patientRepo.GetByID(ctx, created.Patient.ID)
	if err != nil {
		t.Fatalf("read created patient: %v", err)
	}
	if p.FirstName != "Teo" || p.LastName != "Valdez" {
		t.Errorf("patient names mismatch: %+v", p)
	}
	if p.BirthDate == nil || p.BirthDate.Format("2006-01-02") != "2019-11-07" {
		t.Errorf("birth date mismatch: %v", p.BirthDate)
	}

	adm, err := admissionRepo.GetByID(ctx, created.Admission.ID)
	if err != nil {
		t.Fatalf("read created admission: %v", err)
	}
	if adm.PatientID != p.ID {
		t.Errorf("admission linked to %s, want %s", adm.PatientID, p.ID)
	}
	if adm.ScheduledEnd == nil {
		t.Errorf("duration should derive a scheduled end")
	}
}

func TestClinicalAttachmentsOptionalFields(t *testing.T) {
	ctx := context.Background()
	patientRepo := patient.NewRepo(globalDB.Pool)
	admissionRepo := admission.NewRepo(globalDB.Pool)

	p := &patient.Patient{FirstName: "Rhea", LastName: "Cole"}
	if err := patientRepo.Create(ctx, p); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	adm := &admission.Admission{PatientID: p.ID, ScheduledStart: time.Now().UTC()}
	if err := admissionRepo.Create(ctx, adm); err != nil {
		t.Fatalf("create admission: %v", err)
	}

	// Diagnosis with code and description both omitted.
	d := &admission.Diagnosis{PatientID: p.ID, AdmissionID: adm.ID}
	if err := admissionRepo.AddDiagnosis(ctx, d); err != nil {
		t.Fatalf("add diagnosis without description: %v", err)
	}
	diagnoses, err := admissionRepo.GetDiagnoses(ctx, adm.ID)
	if err != nil {
		t.Fatalf("get diagnoses: %v", err)
	}
	if len(diagnoses) != 1 {
		t.Fatalf("expected 1 diagnosis, got %d", len(diagnoses))
	}
	if diagnoses[0].Description != nil || diagnoses[0].Code != nil {
		t.Errorf("omitted fields should read back as nil: %+v", diagnoses[0])
	}

	// Treatment with no rationale given.
	tr := &admission.Treatment{AdmissionID: adm.ID, Drug: "amoxicillin", Status: "pending"}
	if err := admissionRepo.AddTreatment(ctx, tr); err != nil {
		t.Fatalf("add treatment without rationale: %v", err)
	}
	treatments, err := admissionRepo.GetTreatments(ctx, adm.ID)
	if err != nil {
		t.Fatalf("get treatments: %v", err)
	}
	if len(treatments) != 1 || treatments[0].Rationale != "" {
		t.Errorf("rationale should read back empty: %+v", treatments)
	}
}

func TestMigrationStatusAllApplied(t *testing.T) {
	ctx := context.Background()
	migrator := db.NewMigrator(globalDB.Pool, globalDB.MigrationsDir)
	statuses, err := migrator.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(statuses) == 0 {
		t.Fatal("expected at least one migration")
	}
	for _, s := range statuses {
		if !s.Applied {
			t.Errorf("migration %d (%s) not applied", s.Version, s.Name)
		}
	}
}
