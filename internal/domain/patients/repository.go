package patients

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p Patient) error
	Get(ctx context.Context, incidentID, letter string) (Patient, error)
	ListByIncident(ctx context.Context, incidentID string) ([]Patient, error)
	UpdateAuthor(ctx context.Context, incidentID, letter, authorUserID, authorCallsign string, now time.Time) error
	UpdateStatus(ctx context.Context, incidentID, letter string, status Status, now time.Time) error
}
