package memory

import (
	"context"
	"errors"
	"sync"

	"eprf-collab/internal/domain/accessrequests"
)

type accessRequestsRepo struct {
	mu   sync.RWMutex
	byID map[string]accessrequests.Request
}

func NewAccessRequestsRepo() accessrequests.Repository {
	return &accessRequestsRepo{
		byID: make(map[string]accessrequests.Request),
	}
}

func (r *accessRequestsRepo) Create(ctx context.Context, req accessrequests.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.ID == "" {
		return errors.New("request id required")
	}
	if _, exists := r.byID[req.ID]; exists {
		return errors.New("request already exists")
	}
	r.byID[req.ID] = req
	return nil
}

func (r *accessRequestsRepo) GetByID(ctx context.Context, id string) (accessrequests.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.byID[id]
	if !ok {
		return accessrequests.Request{}, accessrequests.ErrNotFound
	}
	return req, nil
}

func (r *accessRequestsRepo) MarkReviewed(ctx context.Context, req accessrequests.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[req.ID]
	if !ok {
		return accessrequests.ErrNotFound
	}
	if stored.Status != accessrequests.StatusPending {
		return accessrequests.ErrConflict
	}
	r.byID[req.ID] = req
	return nil
}

func (r *accessRequestsRepo) ListByIncident(ctx context.Context, incidentID string) ([]accessrequests.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]accessrequests.Request, 0)
	for _, req := range r.byID {
		if req.IncidentID == incidentID {
			out = append(out, req)
		}
	}
	return out, nil
}
