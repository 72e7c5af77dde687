package postgres

import (
	"context"
	"database/sql"
	"time"

	"eprf-collab/internal/domain/patients"
)

type PatientsRepo struct {
	db *sql.DB
}

func NewPatientsRepo(db *sql.DB) *PatientsRepo {
	return &PatientsRepo{db: db}
}

func (r *PatientsRepo) Create(ctx context.Context, p patients.Patient) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO patients (
			incident_id, patient_letter,
			author_user_id, author_callsign, status,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		p.IncidentID,
		p.Letter,
		p.AuthorUserID,
		p.AuthorCallsign,
		string(p.Status),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *PatientsRepo) Get(ctx context.Context, incidentID, letter string) (patients.Patient, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT incident_id, patient_letter,
		       author_user_id, author_callsign, status,
		       created_at, updated_at
		FROM patients
		WHERE incident_id = $1 AND patient_letter = $2
	`, incidentID, letter)

	var p patients.Patient
	var status string
	if err := row.Scan(
		&p.IncidentID,
		&p.Letter,
		&p.AuthorUserID,
		&p.AuthorCallsign,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return patients.Patient{}, patients.ErrNotFound
		}
		return patients.Patient{}, err
	}
	p.Status = patients.Status(status)
	return p, nil
}

func (r *PatientsRepo) ListByIncident(ctx context.Context, incidentID string) ([]patients.Patient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT incident_id, patient_letter,
		       author_user_id, author_callsign, status,
		       created_at, updated_at
		FROM patients
		WHERE incident_id = $1
		ORDER BY patient_letter ASC
	`, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]patients.Patient, 0)
	for rows.Next() {
		var p patients.Patient
		var status string
		if err := rows.Scan(
			&p.IncidentID,
			&p.Letter,
			&p.AuthorUserID,
			&p.AuthorCallsign,
			&status,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		p.Status = patients.Status(status)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PatientsRepo) UpdateAuthor(ctx context.Context, incidentID, letter, authorUserID, authorCallsign string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE patients
		SET author_user_id = $3, author_callsign = $4, updated_at = $5
		WHERE incident_id = $1 AND patient_letter = $2
	`, incidentID, letter, authorUserID, authorCallsign, now)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return patients.ErrNotFound
	}
	return nil
}

func (r *PatientsRepo) UpdateStatus(ctx context.Context, incidentID, letter string, status patients.Status, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE patients
		SET status = $3, updated_at = $4
		WHERE incident_id = $1 AND patient_letter = $2
	`, incidentID, letter, string(status), now)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return patients.ErrNotFound
	}
	return nil
}
