package sharelinks

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"eprf-collab/internal/domain/grants"
	"eprf-collab/internal/permissions"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("link expired")
	ErrUsedByOther  = errors.New("link already used by another user")
)

type Service struct {
	repo     Repository
	grants   *grants.Service
	resolver *permissions.Resolver
	now      func() time.Time
}

func NewService(repo Repository, grantsSvc *grants.Service, resolver *permissions.Resolver) *Service {
	return &Service{
		repo:     repo,
		grants:   grantsSvc,
		resolver: resolver,
		now:      time.Now,
	}
}

type CreateInput struct {
	IncidentID     string
	PatientLetter  string
	Level          permissions.Level
	CreatedBy      string
	ExpiresInHours int // 0 = sin vencimiento
}

// Create emite un link. Requiere manage+ sobre el scope; la escalera es
// la misma de asignación: manage emite view/edit, owner hasta manage.
func (s *Service) Create(ctx context.Context, in CreateInput) (Link, error) {
	incidentID := strings.TrimSpace(in.IncidentID)
	createdBy := strings.TrimSpace(in.CreatedBy)
	if incidentID == "" || createdBy == "" || in.ExpiresInHours < 0 {
		return Link{}, ErrInvalidInput
	}

	creatorLevel, err := s.resolver.Resolve(ctx, createdBy, incidentID, in.PatientLetter)
	if err != nil {
		return Link{}, err
	}
	if !permissions.CanAssignLevel(creatorLevel, in.Level) {
		return Link{}, ErrForbidden
	}

	now := s.now()
	l := Link{
		Code:          uuid.NewString(),
		IncidentID:    incidentID,
		PatientLetter: strings.TrimSpace(in.PatientLetter),
		Level:         in.Level,
		CreatedBy:     createdBy,
		CreatedAt:     now,
	}
	if in.ExpiresInHours > 0 {
		exp := now.Add(time.Duration(in.ExpiresInHours) * time.Hour)
		l.ExpiresAt = &exp
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return Link{}, err
	}
	return l, nil
}

// Info es la vista de inspección: sin efectos.
type Info struct {
	IncidentID    string
	PatientLetter string
	Level         permissions.Level
	IsExpired     bool
	IsUsed        bool
	UsedBy        string
}

func (s *Service) Inspect(ctx context.Context, code string) (Info, error) {
	l, err := s.get(ctx, code)
	if err != nil {
		return Info{}, err
	}
	return Info{
		IncidentID:    l.IncidentID,
		PatientLetter: l.PatientLetter,
		Level:         l.Level,
		IsExpired:     l.Expired(s.now()),
		IsUsed:        l.Used(),
		UsedBy:        l.UsedBy,
	}, nil
}

// Redeem consume el link. Primera redención: marca usedBy y otorga el
// grant. El mismo usuario de nuevo: éxito no-op (se re-upserta el grant,
// retry-safe). Otro usuario: ErrUsedByOther. Vencido: ErrExpired.
func (s *Service) Redeem(ctx context.Context, code, userID, userCallsign string) (grants.Grant, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return grants.Grant{}, ErrInvalidInput
	}

	l, err := s.get(ctx, code)
	if err != nil {
		return grants.Grant{}, err
	}
	if l.Expired(s.now()) {
		return grants.Grant{}, ErrExpired
	}

	if !l.Used() {
		claimed, err := s.repo.MarkUsed(ctx, l.Code, userID)
		if err != nil {
			return grants.Grant{}, err
		}
		if !claimed {
			// Perdimos la carrera: releer y caer en las reglas de abajo.
			l, err = s.get(ctx, code)
			if err != nil {
				return grants.Grant{}, err
			}
		} else {
			l.UsedBy = userID
		}
	}

	if l.UsedBy != userID {
		return grants.Grant{}, ErrUsedByOther
	}

	// Si el usuario ya tiene un nivel igual o mayor en el scope, el link
	// no lo degrada: no-op devolviendo lo que ya resolvió.
	current, err := s.resolver.Resolve(ctx, userID, l.IncidentID, l.PatientLetter)
	if err != nil {
		return grants.Grant{}, err
	}
	if current.AtLeast(l.Level) {
		return grants.Grant{
			IncidentID:    l.IncidentID,
			PatientLetter: l.PatientLetter,
			UserID:        userID,
			Level:         l.Level,
			AddedBy:       l.CreatedBy,
		}, nil
	}

	return s.grants.Grant(ctx, grants.GrantInput{
		Scope:     l.Scope(),
		UserID:    userID,
		Level:     l.Level,
		AddedBy:   l.CreatedBy,
		ExpiresAt: l.ExpiresAt,
	})
}

// Revoke borra el link: su creador, el owner del incidente, o un admin
// (el flag lo decide el handler con AdminDirectory).
func (s *Service) Revoke(ctx context.Context, code, requesterID string, adminOverride bool) error {
	requesterID = strings.TrimSpace(requesterID)
	if requesterID == "" {
		return ErrInvalidInput
	}

	l, err := s.get(ctx, code)
	if err != nil {
		return err
	}

	if !adminOverride && l.CreatedBy != requesterID {
		level, err := s.resolver.Resolve(ctx, requesterID, l.IncidentID, "")
		if err != nil {
			return err
		}
		if level != permissions.LevelOwner {
			return ErrForbidden
		}
	}

	return s.repo.Delete(ctx, l.Code)
}

// PurgeExpired borra links vencidos (lo agenda el sweeper).
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

func (s *Service) get(ctx context.Context, code string) (Link, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Link{}, ErrInvalidInput
	}
	l, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return Link{}, ErrNotFound
	}
	return l, nil
}
