package notifications

import "time"

// Notification es una entrada del inbox de un usuario. Los clientes
// la descubren por polling; no hay push.
type Notification struct {
	ID string

	RecipientUserID string
	Type            string
	Title           string
	Message         string

	// Context lleva referencias navegables (incident_id, patient_letter,
	// request_id...). Opaco para este módulo.
	Context map[string]string

	Read      bool
	CreatedAt time.Time
}
