package accessrequests

import (
	"time"

	"eprf-collab/internal/permissions"
)

// Status de un pedido de acceso. pending es el único estado no terminal;
// la transición a approved/denied ocurre exactamente una vez.
// @Enum pending, approved, denied
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

type Request struct {
	ID string

	IncidentID    string
	PatientLetter string // "" = acceso al incidente completo

	RequesterID       string
	RequesterCallsign string
	RequestedLevel    permissions.Level
	Message           string

	Status     Status
	ReviewedBy string
	ReviewedAt *time.Time

	CreatedAt time.Time
}

func (r Request) Scope() permissions.Scope {
	return permissions.Scope{IncidentID: r.IncidentID, PatientLetter: r.PatientLetter}
}

func (r Request) Terminal() bool {
	return r.Status == StatusApproved || r.Status == StatusDenied
}
