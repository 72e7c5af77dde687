package patients

import "context"

// AuthorOf expone el autor de un paciente para el resolver de permisos.
// Devuelve "" (sin error) si el paciente no existe: el resolver trata
// la ausencia como "no aplica ownership", el 404 lo decide el handler.
func (s *Service) AuthorOf(ctx context.Context, incidentID, letter string) (string, error) {
	p, err := s.repo.Get(ctx, incidentID, letter)
	if err != nil {
		return "", nil
	}
	return p.AuthorUserID, nil
}

// IncidentAuthor devuelve el autor del paciente A: el owner del incidente.
func (s *Service) IncidentAuthor(ctx context.Context, incidentID string) (string, error) {
	return s.AuthorOf(ctx, incidentID, "A")
}

// LettersOf lista las letras existentes del incidente (para el sync
// cross-tier de grants).
func (s *Service) LettersOf(ctx context.Context, incidentID string) ([]string, error) {
	items, err := s.repo.ListByIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.Letter)
	}
	return out, nil
}
