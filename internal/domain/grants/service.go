package grants

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

// PatientLetters lista las letras existentes de un incidente.
// Se define acá para no importar el paquete patients (rompe ciclos).
type PatientLetters interface {
	LettersOf(ctx context.Context, incidentID string) ([]string, error)
}

// Service es el store de permisos: upsert/revoke/list más las dos rutinas
// de mantenimiento del invariante cross-tier ("todo manager del incidente
// tiene al menos manage en cada paciente"). Esas rutinas viven solo acá
// y se disparan desde exactamente dos triggers: grant de incidente que
// llega a manage, y creación de paciente.
type Service struct {
	repo     Repository
	resolver *permissions.Resolver
	letters  PatientLetters
	now      func() time.Time
}

func NewService(repo Repository, letters PatientLetters) *Service {
	return &Service{
		repo:    repo,
		letters: letters,
		now:     time.Now,
	}
}

// AttachResolver conecta el resolver una vez construido.
// El resolver lee grants vía LevelSource(repo), así que se arma después
// del repo pero el service lo necesita para Revoke; de ahí el 2-step.
func (s *Service) AttachResolver(r *permissions.Resolver) {
	s.resolver = r
}

type GrantInput struct {
	Scope   permissions.Scope
	UserID  string
	Level   permissions.Level
	AddedBy string
	// ExpiresAt absoluto, o ExpiresInHours relativo al reloj del
	// service. Con los dos seteados gana ExpiresInHours.
	ExpiresAt      *time.Time
	ExpiresInHours int
}

// Grant hace upsert del grant. Re-grantear pisa level y expiry.
// El caller (handler/workflow) ya pasó CanAssignLevel/CanModifyTarget;
// acá solo validamos forma y mantenemos el invariante cross-tier.
func (s *Service) Grant(ctx context.Context, in GrantInput) (Grant, error) {
	incidentID := strings.TrimSpace(in.Scope.IncidentID)
	userID := strings.TrimSpace(in.UserID)
	addedBy := strings.TrimSpace(in.AddedBy)

	if incidentID == "" || userID == "" || addedBy == "" {
		return Grant{}, ErrInvalidInput
	}
	switch in.Level {
	case permissions.LevelView, permissions.LevelEdit, permissions.LevelManage:
	default:
		return Grant{}, ErrInvalidInput
	}

	now := s.now()
	if in.ExpiresInHours < 0 {
		return Grant{}, ErrInvalidInput
	}
	expiresAt := in.ExpiresAt
	if in.ExpiresInHours > 0 {
		t := now.Add(time.Duration(in.ExpiresInHours) * time.Hour)
		expiresAt = &t
	}
	if expiresAt != nil && !expiresAt.After(now) {
		return Grant{}, ErrInvalidInput
	}

	g := Grant{
		IncidentID:    incidentID,
		PatientLetter: in.Scope.PatientLetter,
		UserID:        userID,
		Level:         in.Level,
		AddedBy:       addedBy,
		ExpiresAt:     expiresAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Upsert(ctx, g); err != nil {
		return Grant{}, err
	}

	// Trigger 1 del sync cross-tier: grant de incidente a manage.
	if !in.Scope.IsPatient() && in.Level == permissions.LevelManage {
		if err := s.SyncHighLevelDown(ctx, incidentID, userID, in.Level, addedBy); err != nil {
			return Grant{}, err
		}
	}

	stored, err := s.repo.Get(ctx, g.Scope(), userID)
	if err != nil {
		return g, nil
	}
	return stored, nil
}

// Revoke borra el grant de (scope, target). Forbidden si el target es
// owner (eso se resuelve transfiriendo, no revocando) o si el requester
// no supera estrictamente el nivel del target.
func (s *Service) Revoke(ctx context.Context, scope permissions.Scope, targetUserID, requestedBy string) error {
	targetUserID = strings.TrimSpace(targetUserID)
	requestedBy = strings.TrimSpace(requestedBy)
	if scope.IncidentID == "" || targetUserID == "" || requestedBy == "" {
		return ErrInvalidInput
	}

	targetLevel, err := s.resolver.Resolve(ctx, targetUserID, scope.IncidentID, scope.PatientLetter)
	if err != nil {
		return err
	}
	if targetLevel == permissions.LevelOwner {
		return ErrForbidden
	}

	if _, err := s.repo.Get(ctx, scope, targetUserID); err != nil {
		return ErrNotFound
	}

	requesterLevel, err := s.resolver.Resolve(ctx, requestedBy, scope.IncidentID, scope.PatientLetter)
	if err != nil {
		return err
	}
	if !permissions.CanModifyTarget(requesterLevel, targetLevel) {
		return ErrForbidden
	}

	return s.repo.Delete(ctx, scope, targetUserID)
}

// ListByScope devuelve los grants vigentes del scope, más nuevo primero.
func (s *Service) ListByScope(ctx context.Context, scope permissions.Scope) ([]Grant, error) {
	if strings.TrimSpace(scope.IncidentID) == "" {
		return nil, ErrInvalidInput
	}
	items, err := s.repo.ListByScope(ctx, scope)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]Grant, 0, len(items))
	for _, g := range items {
		if g.Expired(now) {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// SyncHighLevelDown propaga un grant alto de incidente como piso sobre
// cada paciente existente. Nunca baja un grant de paciente más alto.
func (s *Service) SyncHighLevelDown(ctx context.Context, incidentID, userID string, level permissions.Level, addedBy string) error {
	letters, err := s.letters.LettersOf(ctx, incidentID)
	if err != nil {
		return err
	}

	now := s.now()
	for _, letter := range letters {
		scope := permissions.PatientScope(incidentID, letter)

		existing, err := s.repo.Get(ctx, scope, userID)
		if err == nil && !existing.Expired(now) && existing.Level.AtLeast(level) {
			continue
		}

		g := Grant{
			IncidentID:    incidentID,
			PatientLetter: letter,
			UserID:        userID,
			Level:         level,
			AddedBy:       addedBy,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Upsert(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

// SeedManagersOnNewPatient copia cada grant manage de incidente al
// paciente recién creado, para que los managers no pierdan alcance.
// Trigger 2 del sync cross-tier (lo invoca patients.Create).
func (s *Service) SeedManagersOnNewPatient(ctx context.Context, incidentID, letter string) error {
	incidentGrants, err := s.repo.ListByScope(ctx, permissions.IncidentScope(incidentID))
	if err != nil {
		return err
	}

	now := s.now()
	for _, ig := range incidentGrants {
		if ig.Expired(now) || ig.Level != permissions.LevelManage {
			continue
		}
		g := Grant{
			IncidentID:    incidentID,
			PatientLetter: letter,
			UserID:        ig.UserID,
			Level:         ig.Level,
			AddedBy:       ig.AddedBy,
			ExpiresAt:     ig.ExpiresAt,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Upsert(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

// DropGrantRow borra un grant sin reglas de autorización. Lo usa el
// transfer para limpiar filas que quedaron redundantes con el ownership
// derivado. Ignora ausencia.
func (s *Service) DropGrantRow(ctx context.Context, scope permissions.Scope, userID string) error {
	err := s.repo.Delete(ctx, scope, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// PurgeExpired borra grants vencidos (lo agenda el sweeper).
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}
