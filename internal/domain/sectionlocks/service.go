package sectionlocks

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"eprf-collab/internal/permissions"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

type Service struct {
	repo     Repository
	resolver *permissions.Resolver
	now      func() time.Time
}

func NewService(repo Repository, resolver *permissions.Resolver) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		now:      time.Now,
	}
}

type LockInput struct {
	IncidentID    string
	PatientLetter string
	Section       string
	Level         permissions.Level
	LockerID      string
}

// Lock crea o pisa el lock de la sección (last-writer-wins).
// Requiere canLockToLevel sobre el nivel resuelto del locker:
// manage solo lockea a edit, owner a edit o manage.
func (s *Service) Lock(ctx context.Context, in LockInput) (Lock, error) {
	section := strings.TrimSpace(in.Section)
	lockerID := strings.TrimSpace(in.LockerID)
	if in.IncidentID == "" || in.PatientLetter == "" || section == "" || lockerID == "" {
		return Lock{}, ErrInvalidInput
	}
	if in.Level != permissions.LevelEdit && in.Level != permissions.LevelManage {
		return Lock{}, ErrInvalidInput
	}

	actorLevel, err := s.resolver.Resolve(ctx, lockerID, in.IncidentID, in.PatientLetter)
	if err != nil {
		return Lock{}, err
	}
	if !permissions.CanLockToLevel(actorLevel, in.Level) {
		return Lock{}, ErrForbidden
	}

	l := Lock{
		IncidentID:    in.IncidentID,
		PatientLetter: in.PatientLetter,
		Section:       section,
		Level:         in.Level,
		LockedBy:      lockerID,
		LockedAt:      s.now(),
	}
	return s.repo.Put(ctx, l)
}

// Unlock libera el lock. Permitido si el requester es el locker original,
// si su nivel resuelto supera estrictamente el level del lock, o si viene
// con override de admin (el flag lo decide el handler con AdminDirectory,
// nunca este paquete). Sin lock existente es no-op: removed=false.
func (s *Service) Unlock(ctx context.Context, incidentID, letter, section, requesterID string, adminOverride bool) (bool, error) {
	section = strings.TrimSpace(section)
	requesterID = strings.TrimSpace(requesterID)
	if incidentID == "" || letter == "" || section == "" || requesterID == "" {
		return false, ErrInvalidInput
	}

	l, err := s.repo.Get(ctx, incidentID, letter, section)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !adminOverride && l.LockedBy != requesterID {
		level, err := s.resolver.Resolve(ctx, requesterID, incidentID, letter)
		if err != nil {
			return false, err
		}
		if !level.Above(l.Level) {
			return false, ErrForbidden
		}
	}

	if err := s.repo.Delete(ctx, incidentID, letter, section); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CanEdit: true si la sección no tiene lock o si el nivel del actor
// alcanza el level del lock.
func (s *Service) CanEdit(ctx context.Context, incidentID, letter, section string, actorLevel permissions.Level) (bool, error) {
	l, err := s.repo.Get(ctx, incidentID, letter, section)
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return actorLevel.AtLeast(l.Level), nil
}

func (s *Service) List(ctx context.Context, incidentID, letter string) ([]Lock, error) {
	if strings.TrimSpace(incidentID) == "" || strings.TrimSpace(letter) == "" {
		return nil, ErrInvalidInput
	}
	items, err := s.repo.List(ctx, incidentID, letter)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Section < items[j].Section })
	return items, nil
}
