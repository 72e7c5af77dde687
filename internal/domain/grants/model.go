package grants

import (
	"time"

	"eprf-collab/internal/permissions"
)

// Grant es un permiso almacenado (scope, user) -> level.
// Owner nunca aparece acá: se deriva de la autoría del paciente.
// Unicidad: un grant por (incidente, letra, user); la letra vacía
// es el scope de incidente.
type Grant struct {
	IncidentID    string
	PatientLetter string // "" = scope de incidente
	UserID        string

	Level   permissions.Level // view | edit | manage
	AddedBy string

	ExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (g Grant) Scope() permissions.Scope {
	return permissions.Scope{IncidentID: g.IncidentID, PatientLetter: g.PatientLetter}
}

// Expired indica si el grant ya venció. Un grant vencido no cuenta para
// el resolver; el sweep lo borra en batch, pero la corrección no depende
// del timing del sweep.
func (g Grant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.After(now)
}
