package permissions

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)

// PatientAuthors expone la autoría sin importar el paquete patients
// (rompe ciclos, igual que el lookup de ownership en otros módulos).
// Devuelve "" si el paciente no existe.
type PatientAuthors interface {
	AuthorOf(ctx context.Context, incidentID, letter string) (string, error)
	// IncidentAuthor es el autor del paciente A: el owner del incidente.
	IncidentAuthor(ctx context.Context, incidentID string) (string, error)
}

// GrantSource expone el nivel vigente de un grant almacenado
// (ya filtrado por expiración). ok=false si no hay grant activo.
type GrantSource interface {
	ActiveLevel(ctx context.Context, scope Scope, userID string) (Level, bool, error)
}

// Resolver calcula el permiso efectivo de (user, incidente, paciente).
// Es la única fuente de verdad para las reglas de asignación y locking:
// los handlers de ambos tiers consultan acá, nunca duplican la política.
type Resolver struct {
	authors PatientAuthors
	grants  GrantSource
}

func NewResolver(authors PatientAuthors, grants GrantSource) *Resolver {
	return &Resolver{authors: authors, grants: grants}
}

// Resolve devuelve el nivel efectivo. patientLetter vacío = solo scope
// de incidente. Precedencia: owner derivado > grant de paciente > grant
// de incidente (en la práctica, max de los tres).
func (r *Resolver) Resolve(ctx context.Context, userID, incidentID, patientLetter string) (Level, error) {
	userID = strings.TrimSpace(userID)
	incidentID = strings.TrimSpace(incidentID)
	if userID == "" || incidentID == "" {
		return LevelNone, ErrInvalidInput
	}

	// El owner del incidente (autor del paciente A) es owner en todos
	// los tiers: puede transferir cualquier paciente del incidente.
	incidentAuthor, err := r.authors.IncidentAuthor(ctx, incidentID)
	if err != nil {
		return LevelNone, err
	}
	if incidentAuthor != "" && incidentAuthor == userID {
		return LevelOwner, nil
	}

	level := LevelNone

	if patientLetter != "" {
		author, err := r.authors.AuthorOf(ctx, incidentID, patientLetter)
		if err != nil {
			return LevelNone, err
		}
		if author != "" && author == userID {
			return LevelOwner, nil
		}

		if pl, ok, err := r.grants.ActiveLevel(ctx, PatientScope(incidentID, patientLetter), userID); err != nil {
			return LevelNone, err
		} else if ok {
			level = MaxLevel(level, pl)
		}
	}

	if il, ok, err := r.grants.ActiveLevel(ctx, IncidentScope(incidentID), userID); err != nil {
		return LevelNone, err
	} else if ok {
		level = MaxLevel(level, il)
	}

	return level, nil
}

// RequireAtLeast corta con ErrForbidden si el nivel efectivo no alcanza.
func (r *Resolver) RequireAtLeast(ctx context.Context, userID string, scope Scope, min Level) (Level, error) {
	level, err := r.Resolve(ctx, userID, scope.IncidentID, scope.PatientLetter)
	if err != nil {
		return LevelNone, err
	}
	if !level.AtLeast(min) {
		return level, ErrForbidden
	}
	return level, nil
}

// CanLockToLevel: manage solo puede lockear a edit; owner a edit o manage.
// Nadie más lockea.
func CanLockToLevel(actor, target Level) bool {
	switch target {
	case LevelEdit:
		return actor.AtLeast(LevelManage)
	case LevelManage:
		return actor == LevelOwner
	default:
		return false
	}
}

// CanAssignLevel: owner asigna view/edit/manage; manage solo view/edit.
// Owner nunca es asignable (se deriva de autoría).
func CanAssignLevel(actor, target Level) bool {
	switch target {
	case LevelView, LevelEdit:
		return actor.AtLeast(LevelManage)
	case LevelManage:
		return actor == LevelOwner
	default:
		return false
	}
}

// CanModifyTarget: para tocar (sobrescribir/revocar) el grant de otro,
// el actor debe superar estrictamente el nivel del target. Esto deja
// afuera manage-vs-manage y cualquier intento contra el owner.
func CanModifyTarget(actor, target Level) bool {
	return actor.Above(target)
}
