package patient

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

const patientCols = `id, display_name, first_name, last_name, gender, birth_date,
	race, marital_status, language, poverty_percentage, photo_url,
	primary_diagnosis, general_reason, next_appointment, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (
			id, display_name, first_name, last_name, gender, birth_date,
			race, marital_status, language, poverty_percentage, photo_url,
			primary_diagnosis, general_reason, next_appointment
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
		)`,
		p.ID, p.DisplayName, p.FirstName, p.LastName, p.Gender, p.BirthDate,
		p.Race, p.MaritalStatus, p.Language, p.PovertyPercentage, p.PhotoURL,
		p.PrimaryDiagnosis, p.GeneralReason, p.NextAppointment,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET
			display_name=$2, first_name=$3, last_name=$4, gender=$5, birth_date=$6,
			race=$7, marital_status=$8, language=$9, poverty_percentage=$10,
			photo_url=$11, primary_diagnosis=$12, general_reason=$13,
			next_appointment=$14, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.DisplayName, p.FirstName, p.LastName, p.Gender, p.BirthDate,
		p.Race, p.MaritalStatus, p.Language, p.PovertyPercentage,
		p.PhotoURL, p.PrimaryDiagnosis, p.GeneralReason,
		p.NextAppointment,
	)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patient ORDER BY created_at LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	patients, err := scanPatients(rows)
	if err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

func (r *repoPG) All(ctx context.Context) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPatients(rows)
}

func (r *repoPG) GetAlerts(ctx context.Context, patientID uuid.UUID) ([]*ComplexCaseAlert, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, msg, type, severity, likelihood,
		       triggering_factors, suggested_actions, acknowledged, acknowledged_at, created_at
		FROM complex_case_alert WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*ComplexCaseAlert
	for rows.Next() {
		a := &ComplexCaseAlert{}
		if err := rows.Scan(
			&a.ID, &a.PatientID, &a.Msg, &a.Type, &a.Severity, &a.Likelihood,
			&a.TriggeringFactors, &a.SuggestedActions, &a.Acknowledged, &a.AcknowledgedAt, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *repoPG) AcknowledgeAlert(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE complex_case_alert SET acknowledged = TRUE, acknowledged_at = NOW() WHERE id = $1`, id)
	return err
}

func scanPatient(row pgx.Row) (*Patient, error) {
	p := &Patient{}
	err := row.Scan(
		&p.ID, &p.DisplayName, &p.FirstName, &p.LastName, &p.Gender, &p.BirthDate,
		&p.Race, &p.MaritalStatus, &p.Language, &p.PovertyPercentage, &p.PhotoURL,
		&p.PrimaryDiagnosis, &p.GeneralReason, &p.NextAppointment, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanPatients(rows pgx.Rows) ([]*Patient, error) {
	var patients []*Patient
	for rows.Next() {
		p := &Patient{}
		if err := rows.Scan(
			&p.ID, &p.DisplayName, &p.FirstName, &p.LastName, &p.Gender, &p.BirthDate,
			&p.Race, &p.MaritalStatus, &p.Language, &p.PovertyPercentage, &p.PhotoURL,
			&p.PrimaryDiagnosis, &p.GeneralReason, &p.NextAppointment, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}
