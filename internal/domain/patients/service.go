package patients

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// ManagerSeeder copia los grants manage del incidente al paciente nuevo.
// Se define acá para no importar el paquete grants (rompe ciclos).
type ManagerSeeder interface {
	SeedManagersOnNewPatient(ctx context.Context, incidentID, letter string) error
}

type Service struct {
	repo   Repository
	seeder ManagerSeeder
	now    func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// AttachSeeder conecta el seeder una vez construido. El seeder vive en
// grants, que a su vez lista pacientes por acá; de ahí el 2-step.
func (s *Service) AttachSeeder(seeder ManagerSeeder) {
	s.seeder = seeder
}

type CreateInput struct {
	IncidentID     string
	Letter         string
	AuthorUserID   string
	AuthorCallsign string
}

// Create registra un paciente nuevo. Es uno de los dos triggers de
// mantenimiento del invariante cross-tier: todo manager del incidente
// recibe su grant sobre el paciente nuevo (seedManagersOnNewPatient).
func (s *Service) Create(ctx context.Context, in CreateInput) (Patient, error) {
	incidentID := strings.TrimSpace(in.IncidentID)
	letter := normalizeLetter(in.Letter)
	author := strings.TrimSpace(in.AuthorUserID)

	if incidentID == "" || author == "" {
		return Patient{}, ErrInvalidInput
	}
	if letter == "" {
		return Patient{}, ErrInvalidInput
	}

	if _, err := s.repo.Get(ctx, incidentID, letter); err == nil {
		return Patient{}, ErrConflict
	}

	now := s.now()
	p := Patient{
		IncidentID:     incidentID,
		Letter:         letter,
		AuthorUserID:   author,
		AuthorCallsign: strings.TrimSpace(in.AuthorCallsign),
		Status:         StatusIncomplete,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Patient{}, err
	}

	if s.seeder != nil {
		if err := s.seeder.SeedManagersOnNewPatient(ctx, incidentID, letter); err != nil {
			return Patient{}, err
		}
	}

	return p, nil
}

func (s *Service) Get(ctx context.Context, incidentID, letter string) (Patient, error) {
	incidentID = strings.TrimSpace(incidentID)
	letter = normalizeLetter(letter)
	if incidentID == "" || letter == "" {
		return Patient{}, ErrInvalidInput
	}
	p, err := s.repo.Get(ctx, incidentID, letter)
	if err != nil {
		return Patient{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListByIncident(ctx context.Context, incidentID string) ([]Patient, error) {
	incidentID = strings.TrimSpace(incidentID)
	if incidentID == "" {
		return nil, ErrInvalidInput
	}
	items, err := s.repo.ListByIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Letter < items[j].Letter })
	return items, nil
}

// SetStatus marca el ePRF como incomplete/complete.
// La autorización (autor o manage+) la decide el handler con el resolver.
func (s *Service) SetStatus(ctx context.Context, incidentID, letter string, status Status) (Patient, error) {
	if status != StatusIncomplete && status != StatusComplete {
		return Patient{}, ErrInvalidInput
	}
	p, err := s.Get(ctx, incidentID, letter)
	if err != nil {
		return Patient{}, err
	}
	now := s.now()
	if err := s.repo.UpdateStatus(ctx, p.IncidentID, p.Letter, status, now); err != nil {
		return Patient{}, err
	}
	p.Status = status
	p.UpdatedAt = now
	return p, nil
}

func normalizeLetter(raw string) string {
	l := strings.ToUpper(strings.TrimSpace(raw))
	if len(l) != 1 || l[0] < 'A' || l[0] > 'Z' {
		return ""
	}
	return l
}
