package transfers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"eprf-collab/internal/domain/patients"
	"eprf-collab/internal/permissions"
	"eprf-collab/internal/ports/notify"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// GrantCleaner borra filas de grant que quedaron redundantes con el
// ownership derivado tras un transfer.
type GrantCleaner interface {
	DropGrantRow(ctx context.Context, scope permissions.Scope, userID string) error
}

// Service reasigna autoría: un paciente, o el incidente completo.
// Irreversible; deshacer requiere un segundo transfer.
type Service struct {
	patients patients.Repository
	grants   GrantCleaner
	resolver *permissions.Resolver
	sink     notify.Sink
	now      func() time.Time
}

func NewService(patientsRepo patients.Repository, grantCleaner GrantCleaner, resolver *permissions.Resolver, sink notify.Sink) *Service {
	return &Service{
		patients: patientsRepo,
		grants:   grantCleaner,
		resolver: resolver,
		sink:     sink,
		now:      time.Now,
	}
}

type TransferInput struct {
	IncidentID    string
	PatientLetter string
	FromUserID    string
	ToUserID      string
	ToCallsign    string
	RequestedBy   string
}

// TransferPatient reasigna el autor de un paciente. Solo el owner actual
// del paciente o el owner del incidente pueden pedirlo.
func (s *Service) TransferPatient(ctx context.Context, in TransferInput) error {
	if err := validateTransfer(in, true); err != nil {
		return err
	}

	p, err := s.patients.Get(ctx, in.IncidentID, in.PatientLetter)
	if err != nil {
		return ErrNotFound
	}

	// Autorización antes del chequeo de from stale: un ex-owner que ya
	// transfirió debe recibir Forbidden, no Conflict.
	if err := s.authorizeTransfer(ctx, in.RequestedBy, in.IncidentID, p.AuthorUserID); err != nil {
		return err
	}
	if p.AuthorUserID != in.FromUserID {
		return ErrConflict
	}

	return s.transferStep(ctx, in)
}

// transferStep ejecuta la reasignación ya autorizada. TransferIncident
// lo usa directo: su autorización es una sola, previa, sobre el
// incidente (si no, transferir A invalidaría los pasos siguientes).
func (s *Service) transferStep(ctx context.Context, in TransferInput) error {
	now := s.now()
	if err := s.patients.UpdateAuthor(ctx, in.IncidentID, in.PatientLetter, in.ToUserID, in.ToCallsign, now); err != nil {
		return err
	}

	// El nuevo owner ya no necesita fila de grant sobre este paciente:
	// dejarla sería una segunda fuente de verdad para la misma autoridad.
	scope := permissions.PatientScope(in.IncidentID, in.PatientLetter)
	if err := s.grants.DropGrantRow(ctx, scope, in.ToUserID); err != nil {
		return err
	}

	s.notifyBoth(ctx, in)
	return nil
}

// StepResult reporta el resultado por letra de un transfer de incidente.
// Un fallo parcial jamás se reporta como éxito global.
type StepResult struct {
	PatientLetter string `json:"patient_letter"`
	OK            bool   `json:"ok"`
	Error         string `json:"error,omitempty"`
}

// TransferIncident transfiere el paciente A y luego todo otro paciente
// que siga siendo del fromUser. Solo el owner actual del incidente.
func (s *Service) TransferIncident(ctx context.Context, in TransferInput) ([]StepResult, error) {
	if err := validateTransfer(in, false); err != nil {
		return nil, err
	}

	incidentAuthor, err := s.resolver.Resolve(ctx, in.RequestedBy, in.IncidentID, "")
	if err != nil {
		return nil, err
	}
	if incidentAuthor != permissions.LevelOwner {
		return nil, ErrForbidden
	}

	all, err := s.patients.ListByIncident(ctx, in.IncidentID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrNotFound
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Letter < all[j].Letter })

	// A primero: define el nuevo owner del incidente. Después el resto,
	// por letra, acumulando resultado por paso.
	ordered := make([]patients.Patient, 0, len(all))
	for _, p := range all {
		// Retry-safe: un paciente ya en manos del destino no se repite.
		if p.Letter == "A" && p.AuthorUserID != in.ToUserID {
			ordered = append(ordered, p)
		}
	}
	for _, p := range all {
		if p.Letter != "A" && p.AuthorUserID == in.FromUserID {
			ordered = append(ordered, p)
		}
	}

	results := make([]StepResult, 0, len(ordered))
	for _, p := range ordered {
		step := in
		step.PatientLetter = p.Letter
		step.FromUserID = p.AuthorUserID

		if err := s.transferStep(ctx, step); err != nil {
			results = append(results, StepResult{PatientLetter: p.Letter, OK: false, Error: err.Error()})
			continue
		}
		results = append(results, StepResult{PatientLetter: p.Letter, OK: true})
	}

	return results, nil
}

func (s *Service) authorizeTransfer(ctx context.Context, requestedBy, incidentID, patientAuthor string) error {
	if requestedBy == patientAuthor {
		return nil
	}
	level, err := s.resolver.Resolve(ctx, requestedBy, incidentID, "")
	if err != nil {
		return err
	}
	if level != permissions.LevelOwner {
		return ErrForbidden
	}
	return nil
}

func (s *Service) notifyBoth(ctx context.Context, in TransferInput) {
	msgCtx := map[string]string{
		"incident_id":    in.IncidentID,
		"patient_letter": in.PatientLetter,
	}

	// Best-effort: el sink ya viene envuelto para loguear y tragar fallos.
	_ = s.sink.Notify(ctx, notify.Message{
		RecipientUserID: in.ToUserID,
		Type:            "ownership_received",
		Title:           "Patient record transferred to you",
		Body:            "You are now the author of patient " + in.PatientLetter,
		Context:         msgCtx,
	})
	_ = s.sink.Notify(ctx, notify.Message{
		RecipientUserID: in.FromUserID,
		Type:            "ownership_released",
		Title:           "Patient record transferred",
		Body:            "Patient " + in.PatientLetter + " is no longer yours",
		Context:         msgCtx,
	})
}

func validateTransfer(in TransferInput, needLetter bool) error {
	if strings.TrimSpace(in.IncidentID) == "" ||
		strings.TrimSpace(in.FromUserID) == "" ||
		strings.TrimSpace(in.ToUserID) == "" ||
		strings.TrimSpace(in.RequestedBy) == "" {
		return ErrInvalidInput
	}
	if needLetter && strings.TrimSpace(in.PatientLetter) == "" {
		return ErrInvalidInput
	}
	if in.FromUserID == in.ToUserID {
		return ErrInvalidInput
	}
	return nil
}
