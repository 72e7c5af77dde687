package memory

import (
	"context"
	"sync"

	"eprf-collab/internal/domain/sectionlocks"
)

type lockKey struct {
	incidentID string
	letter     string
	section    string
}

type sectionLocksRepo struct {
	mu   sync.RWMutex
	byID map[lockKey]sectionlocks.Lock
}

func NewSectionLocksRepo() sectionlocks.Repository {
	return &sectionLocksRepo{
		byID: make(map[lockKey]sectionlocks.Lock),
	}
}

func (r *sectionLocksRepo) Put(ctx context.Context, l sectionlocks.Lock) (sectionlocks.Lock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := lockKey{l.IncidentID, l.PatientLetter, l.Section}
	if existing, ok := r.byID[k]; ok {
		l.Version = existing.Version + 1
	} else {
		l.Version = 1
	}
	r.byID[k] = l
	return l, nil
}

func (r *sectionLocksRepo) Get(ctx context.Context, incidentID, letter, section string) (sectionlocks.Lock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.byID[lockKey{incidentID, letter, section}]
	if !ok {
		return sectionlocks.Lock{}, sectionlocks.ErrNotFound
	}
	return l, nil
}

func (r *sectionLocksRepo) Delete(ctx context.Context, incidentID, letter, section string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := lockKey{incidentID, letter, section}
	if _, ok := r.byID[k]; !ok {
		return sectionlocks.ErrNotFound
	}
	delete(r.byID, k)
	return nil
}

func (r *sectionLocksRepo) List(ctx context.Context, incidentID, letter string) ([]sectionlocks.Lock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sectionlocks.Lock, 0)
	for _, l := range r.byID {
		if l.IncidentID == incidentID && l.PatientLetter == letter {
			out = append(out, l)
		}
	}
	return out, nil
}
