package sectionlocks

import (
	"time"

	"eprf-collab/internal/permissions"
)

// Lock es un candado advisory sobre una sección del ePRF: no protege la
// escritura en sí, solo el gate de canEdit. A lo sumo uno por
// (incidente, letra, sección).
type Lock struct {
	IncidentID    string
	PatientLetter string
	Section       string

	// Level mínimo para editar la sección mientras el lock exista.
	// Solo edit o manage.
	Level permissions.Level

	LockedBy string
	LockedAt time.Time

	// Version sube en cada re-lock. El default sigue siendo
	// last-writer-wins, pero un cliente puede detectar que le pisaron
	// el lock comparando versiones.
	Version int
}
