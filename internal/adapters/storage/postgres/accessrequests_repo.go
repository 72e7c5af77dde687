package postgres

import (
	"context"
	"database/sql"

	"eprf-collab/internal/domain/accessrequests"
	"eprf-collab/internal/permissions"
)

type AccessRequestsRepo struct {
	db *sql.DB
}

func NewAccessRequestsRepo(db *sql.DB) *AccessRequestsRepo {
	return &AccessRequestsRepo{db: db}
}

func (r *AccessRequestsRepo) Create(ctx context.Context, req accessrequests.Request) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO access_requests (
			id, incident_id, patient_letter,
			requester_id, requester_callsign, requested_level, message,
			status, reviewed_by, reviewed_at, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		req.ID,
		req.IncidentID,
		req.PatientLetter,
		req.RequesterID,
		req.RequesterCallsign,
		string(req.RequestedLevel),
		req.Message,
		string(req.Status),
		req.ReviewedBy,
		toNullTime(req.ReviewedAt),
		req.CreatedAt,
	)
	return err
}

func (r *AccessRequestsRepo) GetByID(ctx context.Context, id string) (accessrequests.Request, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, incident_id, patient_letter,
		       requester_id, requester_callsign, requested_level, message,
		       status, reviewed_by, reviewed_at, created_at
		FROM access_requests
		WHERE id = $1
	`, id)

	req, err := scanAccessRequest(row)
	if err == sql.ErrNoRows {
		return accessrequests.Request{}, accessrequests.ErrNotFound
	}
	if err != nil {
		return accessrequests.Request{}, err
	}
	return req, nil
}

// MarkReviewed persiste la transición de review. La condición sobre
// status hace de guard: si el pedido ya era terminal (u otro review
// ganó la carrera) no afecta filas y se reporta Conflict. La
// existencia del pedido ya la verificó GetByID en el service.
func (r *AccessRequestsRepo) MarkReviewed(ctx context.Context, req accessrequests.Request) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE access_requests
		SET status = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $1 AND status = 'pending'
	`,
		req.ID,
		string(req.Status),
		req.ReviewedBy,
		toNullTime(req.ReviewedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return accessrequests.ErrConflict
	}
	return nil
}

func (r *AccessRequestsRepo) ListByIncident(ctx context.Context, incidentID string) ([]accessrequests.Request, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, incident_id, patient_letter,
		       requester_id, requester_callsign, requested_level, message,
		       status, reviewed_by, reviewed_at, created_at
		FROM access_requests
		WHERE incident_id = $1
		ORDER BY created_at DESC
	`, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]accessrequests.Request, 0)
	for rows.Next() {
		req, err := scanAccessRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanAccessRequest(row rowScanner) (accessrequests.Request, error) {
	var req accessrequests.Request
	var level, status string
	var reviewedAt sql.NullTime

	if err := row.Scan(
		&req.ID,
		&req.IncidentID,
		&req.PatientLetter,
		&req.RequesterID,
		&req.RequesterCallsign,
		&level,
		&req.Message,
		&status,
		&req.ReviewedBy,
		&reviewedAt,
		&req.CreatedAt,
	); err != nil {
		return accessrequests.Request{}, err
	}

	req.RequestedLevel = permissions.Level(level)
	req.Status = accessrequests.Status(status)
	req.ReviewedAt = fromNullTime(reviewedAt)
	return req, nil
}
