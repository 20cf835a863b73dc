package admission

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foresight-cdss/consult/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const admCols = `id, patient_id, scheduled_start, scheduled_end, actual_start, actual_end,
	duration_minutes, reason, transcript, soap_note, prior_auth_justification,
	is_deleted, deleted_at, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, adm *Admission) error {
	if adm.ID == uuid.Nil {
		adm.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO admission (
			id, patient_id, scheduled_start, scheduled_end,
			duration_minutes, reason
		) VALUES ($1,$2,$3,$4,$5,$6)`,
		adm.ID, adm.PatientID, adm.ScheduledStart, adm.ScheduledEnd,
		adm.DurationMinutes, adm.Reason,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return scanAdmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+admCols+` FROM admission WHERE id = $1 AND NOT is_deleted`, id))
}

func (r *repoPG) Update(ctx context.Context, adm *Admission) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE admission SET
			scheduled_start=$2, scheduled_end=$3, actual_start=$4, actual_end=$5,
			duration_minutes=$6, reason=$7, transcript=$8, soap_note=$9,
			prior_auth_justification=$10, updated_at=NOW()
		WHERE id = $1 AND NOT is_deleted`,
		adm.ID, adm.ScheduledStart, adm.ScheduledEnd, adm.ActualStart, adm.ActualEnd,
		adm.DurationMinutes, adm.Reason, adm.Transcript, adm.SOAPNote,
		adm.PriorAuthJustification,
	)
	return err
}

func (r *repoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE admission SET is_deleted = TRUE, deleted_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *repoPG) Restore(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE admission SET is_deleted = FALSE, deleted_at = NULL WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Admission, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM admission WHERE patient_id = $1 AND NOT is_deleted`,
		patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+admCols+` FROM admission
		WHERE patient_id = $1 AND NOT is_deleted
		ORDER BY scheduled_start DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var admissions []*Admission
	for rows.Next() {
		adm, err := scanAdmissionRows(rows)
		if err != nil {
			return nil, 0, err
		}
		admissions = append(admissions, adm)
	}
	return admissions, total, rows.Err()
}

func (r *repoPG) AddTreatment(ctx context.Context, t *Treatment) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatment (id, admission_id, drug, status, rationale)
		VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.AdmissionID, t.Drug, t.Status, t.Rationale)
	return err
}

func (r *repoPG) GetTreatments(ctx context.Context, admissionID uuid.UUID) ([]*Treatment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, admission_id, drug, status, rationale, created_at
		FROM treatment WHERE admission_id = $1 ORDER BY created_at`, admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var treatments []*Treatment
	for rows.Next() {
		t := &Treatment{}
		if err := rows.Scan(&t.ID, &t.AdmissionID, &t.Drug, &t.Status, &t.Rationale, &t.CreatedAt); err != nil {
			return nil, err
		}
		treatments = append(treatments, t)
	}
	return treatments, rows.Err()
}

func (r *repoPG) AddDiagnosis(ctx context.Context, d *Diagnosis) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO diagnosis (id, patient_id, admission_id, code, description)
		VALUES ($1,$2,$3,$4,$5)`,
		d.ID, d.PatientID, d.AdmissionID, d.Code, d.Description)
	return err
}

func (r *repoPG) GetDiagnoses(ctx context.Context, admissionID uuid.UUID) ([]*Diagnosis, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, admission_id, code, description, created_at
		FROM diagnosis WHERE admission_id = $1 ORDER BY created_at`, admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var diagnoses []*Diagnosis
	for rows.Next() {
		d := &Diagnosis{}
		if err := rows.Scan(&d.ID, &d.PatientID, &d.AdmissionID, &d.Code, &d.Description, &d.CreatedAt); err != nil {
			return nil, err
		}
		diagnoses = append(diagnoses, d)
	}
	return diagnoses, rows.Err()
}

func (r *repoPG) AddLabResult(ctx context.Context, lr *LabResult) error {
	if lr.ID == uuid.Nil {
		lr.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_result (id, patient_id, admission_id, name, value, units, taken_at, reference_range, flag)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		lr.ID, lr.PatientID, lr.AdmissionID, lr.Name, lr.Value, lr.Units, lr.TakenAt, lr.ReferenceRange, lr.Flag)
	return err
}

func (r *repoPG) GetLabResults(ctx context.Context, admissionID uuid.UUID) ([]*LabResult, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, admission_id, name, value, units, taken_at, reference_range, flag
		FROM lab_result WHERE admission_id = $1 ORDER BY taken_at`, admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*LabResult
	for rows.Next() {
		lr := &LabResult{}
		if err := rows.Scan(&lr.ID, &lr.PatientID, &lr.AdmissionID, &lr.Name, &lr.Value,
			&lr.Units, &lr.TakenAt, &lr.ReferenceRange, &lr.Flag); err != nil {
			return nil, err
		}
		results = append(results, lr)
	}
	return results, rows.Err()
}

func scanAdmission(row pgx.Row) (*Admission, error) {
	adm := &Admission{}
	err := row.Scan(
		&adm.ID, &adm.PatientID, &adm.ScheduledStart, &adm.ScheduledEnd, &adm.ActualStart, &adm.ActualEnd,
		&adm.DurationMinutes, &adm.Reason, &adm.Transcript, &adm.SOAPNote, &adm.PriorAuthJustification,
		&adm.IsDeleted, &adm.DeletedAt, &adm.CreatedAt, &adm.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return adm, nil
}

func scanAdmissionRows(rows pgx.Rows) (*Admission, error) {
	adm := &Admission{}
	err := rows.Scan(
		&adm.ID, &adm.PatientID, &adm.ScheduledStart, &adm.ScheduledEnd, &adm.ActualStart, &adm.ActualEnd,
		&adm.DurationMinutes, &adm.Reason, &adm.Transcript, &adm.SOAPNote, &adm.PriorAuthJustification,
		&adm.IsDeleted, &adm.DeletedAt, &adm.CreatedAt, &adm.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return adm, nil
}
