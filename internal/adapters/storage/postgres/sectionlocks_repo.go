package postgres

import (
	"context"
	"database/sql"

	"eprf-collab/internal/domain/sectionlocks"
	"eprf-collab/internal/permissions"
)

type SectionLocksRepo struct {
	db *sql.DB
}

func NewSectionLocksRepo(db *sql.DB) *SectionLocksRepo {
	return &SectionLocksRepo{db: db}
}

// Put es last-writer-wins sobre la PK; el version sube en cada pisada
// dentro del mismo statement, así el contador nunca pierde updates.
func (r *SectionLocksRepo) Put(ctx context.Context, l sectionlocks.Lock) (sectionlocks.Lock, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO section_locks (
			incident_id, patient_letter, section,
			level, locked_by, locked_at, version
		) VALUES ($1,$2,$3,$4,$5,$6,1)
		ON CONFLICT (incident_id, patient_letter, section) DO UPDATE
		SET level = EXCLUDED.level,
		    locked_by = EXCLUDED.locked_by,
		    locked_at = EXCLUDED.locked_at,
		    version = section_locks.version + 1
		RETURNING version
	`,
		l.IncidentID,
		l.PatientLetter,
		l.Section,
		string(l.Level),
		l.LockedBy,
		l.LockedAt,
	)

	if err := row.Scan(&l.Version); err != nil {
		return sectionlocks.Lock{}, err
	}
	return l, nil
}

func (r *SectionLocksRepo) Get(ctx context.Context, incidentID, letter, section string) (sectionlocks.Lock, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT incident_id, patient_letter, section,
		       level, locked_by, locked_at, version
		FROM section_locks
		WHERE incident_id = $1 AND patient_letter = $2 AND section = $3
	`, incidentID, letter, section)

	var l sectionlocks.Lock
	var level string
	if err := row.Scan(
		&l.IncidentID,
		&l.PatientLetter,
		&l.Section,
		&level,
		&l.LockedBy,
		&l.LockedAt,
		&l.Version,
	); err != nil {
		if err == sql.ErrNoRows {
			return sectionlocks.Lock{}, sectionlocks.ErrNotFound
		}
		return sectionlocks.Lock{}, err
	}
	l.Level = permissions.Level(level)
	return l, nil
}

func (r *SectionLocksRepo) Delete(ctx context.Context, incidentID, letter, section string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM section_locks
		WHERE incident_id = $1 AND patient_letter = $2 AND section = $3
	`, incidentID, letter, section)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sectionlocks.ErrNotFound
	}
	return nil
}

func (r *SectionLocksRepo) List(ctx context.Context, incidentID, letter string) ([]sectionlocks.Lock, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT incident_id, patient_letter, section,
		       level, locked_by, locked_at, version
		FROM section_locks
		WHERE incident_id = $1 AND patient_letter = $2
		ORDER BY section ASC
	`, incidentID, letter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]sectionlocks.Lock, 0)
	for rows.Next() {
		var l sectionlocks.Lock
		var level string
		if err := rows.Scan(
			&l.IncidentID,
			&l.PatientLetter,
			&l.Section,
			&level,
			&l.LockedBy,
			&l.LockedAt,
			&l.Version,
		); err != nil {
			return nil, err
		}
		l.Level = permissions.Level(level)
		out = append(out, l)
	}
	return out, rows.Err()
}
