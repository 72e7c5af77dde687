package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"eprf-collab/internal/domain/sharelinks"
)

type shareLinksRepo struct {
	mu     sync.RWMutex
	byCode map[string]sharelinks.Link
}

func NewShareLinksRepo() sharelinks.Repository {
	return &shareLinksRepo{
		byCode: make(map[string]sharelinks.Link),
	}
}

func (r *shareLinksRepo) Create(ctx context.Context, l sharelinks.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l.Code == "" {
		return errors.New("link code required")
	}
	if _, exists := r.byCode[l.Code]; exists {
		return errors.New("link already exists")
	}
	r.byCode[l.Code] = l
	return nil
}

func (r *shareLinksRepo) GetByCode(ctx context.Context, code string) (sharelinks.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.byCode[code]
	if !ok {
		return sharelinks.Link{}, sharelinks.ErrNotFound
	}
	return l, nil
}

// MarkUsed es el write condicional: bajo el mismo mutex, así que dos
// redenciones concurrentes convergen en un solo claim.
func (r *shareLinksRepo) MarkUsed(ctx context.Context, code, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.byCode[code]
	if !ok {
		return false, sharelinks.ErrNotFound
	}
	if l.UsedBy != "" {
		return false, nil
	}
	l.UsedBy = userID
	r.byCode[code] = l
	return true, nil
}

func (r *shareLinksRepo) Delete(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byCode[code]; !ok {
		return sharelinks.ErrNotFound
	}
	delete(r.byCode, code)
	return nil
}

func (r *shareLinksRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for code, l := range r.byCode {
		if l.Expired(now) {
			delete(r.byCode, code)
			n++
		}
	}
	return n, nil
}
