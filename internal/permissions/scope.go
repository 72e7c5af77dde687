package permissions

// Scope identifica sobre qué aplica un permiso: un incidente completo
// o un paciente (letra A–Z) dentro del incidente.
type Scope struct {
	IncidentID    string
	PatientLetter string // vacío = scope de incidente
}

func IncidentScope(incidentID string) Scope {
	return Scope{IncidentID: incidentID}
}

func PatientScope(incidentID, letter string) Scope {
	return Scope{IncidentID: incidentID, PatientLetter: letter}
}

func (s Scope) IsPatient() bool {
	return s.PatientLetter != ""
}
