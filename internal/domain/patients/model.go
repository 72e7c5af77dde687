package patients

import "time"

// Status indica si el ePRF del paciente está terminado.
// @Enum incomplete, complete
type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusComplete   Status = "complete"
)

// Patient es un registro de paciente dentro de un incidente.
// La identidad es (IncidentID, Letter): la letra A–Z es única por incidente.
// El incidente no tiene tabla propia; existe como clave compartida, y su
// owner es el autor del paciente A.
type Patient struct {
	IncidentID string
	Letter     string // A–Z

	AuthorUserID   string // owner del registro; nunca se materializa como grant
	AuthorCallsign string

	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
}
