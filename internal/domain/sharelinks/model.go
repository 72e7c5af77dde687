package sharelinks

import (
	"time"

	"eprf-collab/internal/permissions"
)

// Link es un capability token de un solo uso: el primer usuario que lo
// redime se lleva el permiso. El mismo usuario puede re-redimir (no-op);
// cualquier otro recibe rechazo.
type Link struct {
	Code string // único

	IncidentID    string
	PatientLetter string // "" = scope de incidente
	Level         permissions.Level

	CreatedBy string
	CreatedAt time.Time
	ExpiresAt *time.Time

	UsedBy string // "" hasta la primera redención
}

func (l Link) Scope() permissions.Scope {
	return permissions.Scope{IncidentID: l.IncidentID, PatientLetter: l.PatientLetter}
}

func (l Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}

func (l Link) Used() bool {
	return l.UsedBy != ""
}
