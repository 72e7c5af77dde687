package postgres

import (
	"context"
	"database/sql"
	"time"

	"eprf-collab/internal/domain/grants"
	"eprf-collab/internal/permissions"
)

type GrantsRepo struct {
	db *sql.DB
}

func NewGrantsRepo(db *sql.DB) *GrantsRepo {
	return &GrantsRepo{db: db}
}

// Upsert se apoya en la PK (incident_id, patient_letter, user_id):
// requests duplicados concurrentes convergen en una sola fila.
func (r *GrantsRepo) Upsert(ctx context.Context, g grants.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO grants (
			incident_id, patient_letter, user_id,
			level, added_by, expires_at,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (incident_id, patient_letter, user_id) DO UPDATE
		SET level = EXCLUDED.level,
		    added_by = EXCLUDED.added_by,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at
	`,
		g.IncidentID,
		g.PatientLetter,
		g.UserID,
		string(g.Level),
		g.AddedBy,
		toNullTime(g.ExpiresAt),
		g.CreatedAt,
		g.UpdatedAt,
	)
	return err
}

func (r *GrantsRepo) Get(ctx context.Context, scope permissions.Scope, userID string) (grants.Grant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT incident_id, patient_letter, user_id,
		       level, added_by, expires_at,
		       created_at, updated_at
		FROM grants
		WHERE incident_id = $1 AND patient_letter = $2 AND user_id = $3
	`, scope.IncidentID, scope.PatientLetter, userID)

	g, err := scanGrant(row)
	if err == sql.ErrNoRows {
		return grants.Grant{}, grants.ErrNotFound
	}
	if err != nil {
		return grants.Grant{}, err
	}
	return g, nil
}

func (r *GrantsRepo) Delete(ctx context.Context, scope permissions.Scope, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM grants
		WHERE incident_id = $1 AND patient_letter = $2 AND user_id = $3
	`, scope.IncidentID, scope.PatientLetter, userID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return grants.ErrNotFound
	}
	return nil
}

func (r *GrantsRepo) ListByScope(ctx context.Context, scope permissions.Scope) ([]grants.Grant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT incident_id, patient_letter, user_id,
		       level, added_by, expires_at,
		       created_at, updated_at
		FROM grants
		WHERE incident_id = $1 AND patient_letter = $2
		ORDER BY created_at DESC
	`, scope.IncidentID, scope.PatientLetter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]grants.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GrantsRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM grants
		WHERE expires_at IS NOT NULL AND expires_at <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrant(row rowScanner) (grants.Grant, error) {
	var g grants.Grant
	var level string
	var expiresAt sql.NullTime

	if err := row.Scan(
		&g.IncidentID,
		&g.PatientLetter,
		&g.UserID,
		&level,
		&g.AddedBy,
		&expiresAt,
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		return grants.Grant{}, err
	}

	g.Level = permissions.Level(level)
	g.ExpiresAt = fromNullTime(expiresAt)
	return g, nil
}
