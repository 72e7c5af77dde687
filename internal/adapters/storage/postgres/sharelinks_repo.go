package postgres

import (
	"context"
	"database/sql"
	"time"

	"eprf-collab/internal/domain/sharelinks"
	"eprf-collab/internal/permissions"
)

type ShareLinksRepo struct {
	db *sql.DB
}

func NewShareLinksRepo(db *sql.DB) *ShareLinksRepo {
	return &ShareLinksRepo{db: db}
}

func (r *ShareLinksRepo) Create(ctx context.Context, l sharelinks.Link) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO share_links (
			code, incident_id, patient_letter, level,
			created_by, created_at, expires_at, used_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		l.Code,
		l.IncidentID,
		l.PatientLetter,
		string(l.Level),
		l.CreatedBy,
		l.CreatedAt,
		toNullTime(l.ExpiresAt),
		l.UsedBy,
	)
	return err
}

func (r *ShareLinksRepo) GetByCode(ctx context.Context, code string) (sharelinks.Link, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT code, incident_id, patient_letter, level,
		       created_by, created_at, expires_at, used_by
		FROM share_links
		WHERE code = $1
	`, code)

	var l sharelinks.Link
	var level string
	var expiresAt sql.NullTime
	if err := row.Scan(
		&l.Code,
		&l.IncidentID,
		&l.PatientLetter,
		&level,
		&l.CreatedBy,
		&l.CreatedAt,
		&expiresAt,
		&l.UsedBy,
	); err != nil {
		if err == sql.ErrNoRows {
			return sharelinks.Link{}, sharelinks.ErrNotFound
		}
		return sharelinks.Link{}, err
	}
	l.Level = permissions.Level(level)
	l.ExpiresAt = fromNullTime(expiresAt)
	return l, nil
}

// MarkUsed es el write condicional: el WHERE used_by = '' hace que dos
// redenciones concurrentes converjan en un solo claim.
func (r *ShareLinksRepo) MarkUsed(ctx context.Context, code, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE share_links
		SET used_by = $2
		WHERE code = $1 AND used_by = ''
	`, code, userID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ShareLinksRepo) Delete(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM share_links WHERE code = $1`, code)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sharelinks.ErrNotFound
	}
	return nil
}

func (r *ShareLinksRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM share_links
		WHERE expires_at IS NOT NULL AND expires_at <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
