package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"eprf-collab/internal/domain/patients"
)

type patientKey struct {
	incidentID string
	letter     string
}

type patientsRepo struct {
	mu   sync.RWMutex
	byID map[patientKey]patients.Patient
}

func NewPatientsRepo() patients.Repository {
	return &patientsRepo{
		byID: make(map[patientKey]patients.Patient),
	}
}

func (r *patientsRepo) Create(ctx context.Context, p patients.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.IncidentID == "" || p.Letter == "" {
		return errors.New("patient key required")
	}
	k := patientKey{p.IncidentID, p.Letter}
	if _, exists := r.byID[k]; exists {
		return patients.ErrConflict
	}
	r.byID[k] = p
	return nil
}

func (r *patientsRepo) Get(ctx context.Context, incidentID, letter string) (patients.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[patientKey{incidentID, letter}]
	if !ok {
		return patients.Patient{}, patients.ErrNotFound
	}
	return p, nil
}

func (r *patientsRepo) ListByIncident(ctx context.Context, incidentID string) ([]patients.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]patients.Patient, 0)
	for _, p := range r.byID {
		if p.IncidentID == incidentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *patientsRepo) UpdateAuthor(ctx context.Context, incidentID, letter, authorUserID, authorCallsign string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := patientKey{incidentID, letter}
	p, ok := r.byID[k]
	if !ok {
		return patients.ErrNotFound
	}
	p.AuthorUserID = authorUserID
	p.AuthorCallsign = authorCallsign
	p.UpdatedAt = now
	r.byID[k] = p
	return nil
}

func (r *patientsRepo) UpdateStatus(ctx context.Context, incidentID, letter string, status patients.Status, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := patientKey{incidentID, letter}
	p, ok := r.byID[k]
	if !ok {
		return patients.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = now
	r.byID[k] = p
	return nil
}
