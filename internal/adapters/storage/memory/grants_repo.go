package memory

import (
	"context"
	"sync"
	"time"

	"eprf-collab/internal/domain/grants"
	"eprf-collab/internal/permissions"
)

type grantKey struct {
	incidentID string
	letter     string
	userID     string
}

type grantsRepo struct {
	mu   sync.RWMutex
	byID map[grantKey]grants.Grant
}

func NewGrantsRepo() grants.Repository {
	return &grantsRepo{
		byID: make(map[grantKey]grants.Grant),
	}
}

func keyOf(scope permissions.Scope, userID string) grantKey {
	return grantKey{scope.IncidentID, scope.PatientLetter, userID}
}

func (r *grantsRepo) Upsert(ctx context.Context, g grants.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := grantKey{g.IncidentID, g.PatientLetter, g.UserID}
	// Conservar CreatedAt del grant existente: re-grantear pisa level y
	// expiry, no la antigüedad.
	if existing, ok := r.byID[k]; ok {
		g.CreatedAt = existing.CreatedAt
	}
	r.byID[k] = g
	return nil
}

func (r *grantsRepo) Get(ctx context.Context, scope permissions.Scope, userID string) (grants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[keyOf(scope, userID)]
	if !ok {
		return grants.Grant{}, grants.ErrNotFound
	}
	return g, nil
}

func (r *grantsRepo) Delete(ctx context.Context, scope permissions.Scope, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := keyOf(scope, userID)
	if _, ok := r.byID[k]; !ok {
		return grants.ErrNotFound
	}
	delete(r.byID, k)
	return nil
}

func (r *grantsRepo) ListByScope(ctx context.Context, scope permissions.Scope) ([]grants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]grants.Grant, 0)
	for _, g := range r.byID {
		if g.IncidentID == scope.IncidentID && g.PatientLetter == scope.PatientLetter {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *grantsRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for k, g := range r.byID {
		if g.Expired(now) {
			delete(r.byID, k)
			n++
		}
	}
	return n, nil
}
