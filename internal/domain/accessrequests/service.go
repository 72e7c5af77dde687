package accessrequests

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"eprf-collab/internal/domain/grants"
	"eprf-collab/internal/permissions"
	"eprf-collab/internal/ports/admin"
	"eprf-collab/internal/ports/notify"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Service implementa el workflow pedido -> revisión -> grant/denegación.
// Aprobar produce exactamente un upsert de grant y una notificación;
// el sync cross-tier lo dispara grants.Grant cuando corresponde.
type Service struct {
	repo     Repository
	grants   *grants.Service
	resolver *permissions.Resolver
	admins   admin.Directory
	sink     notify.Sink
	now      func() time.Time
}

func NewService(repo Repository, grantsSvc *grants.Service, resolver *permissions.Resolver, admins admin.Directory, sink notify.Sink) *Service {
	return &Service{
		repo:     repo,
		grants:   grantsSvc,
		resolver: resolver,
		admins:   admins,
		sink:     sink,
		now:      time.Now,
	}
}

type SubmitInput struct {
	IncidentID        string
	PatientLetter     string
	RequesterID       string
	RequesterCallsign string
	RequestedLevel    permissions.Level
	Message           string
}

// Submit crea el pedido en pending. No requiere permiso previo: pedir
// acceso es justamente lo que hace quien no tiene ninguno.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Request, error) {
	incidentID := strings.TrimSpace(in.IncidentID)
	requesterID := strings.TrimSpace(in.RequesterID)
	if incidentID == "" || requesterID == "" {
		return Request{}, ErrInvalidInput
	}
	switch in.RequestedLevel {
	case permissions.LevelView, permissions.LevelEdit, permissions.LevelManage:
	default:
		return Request{}, ErrInvalidInput
	}

	r := Request{
		ID:                uuid.NewString(),
		IncidentID:        incidentID,
		PatientLetter:     strings.TrimSpace(in.PatientLetter),
		RequesterID:       requesterID,
		RequesterCallsign: strings.TrimSpace(in.RequesterCallsign),
		RequestedLevel:    in.RequestedLevel,
		Message:           strings.TrimSpace(in.Message),
		Status:            StatusPending,
		CreatedAt:         s.now(),
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return Request{}, err
	}
	return r, nil
}

type ReviewInput struct {
	RequestID  string
	ReviewerID string
	Approve    bool
	Reason     string // opcional, va en la notificación de denegado
}

// Review aprueba o deniega. Solo un admin de sistema (AdminDirectory) o
// el owner del incidente. Re-revisar un pedido terminal es Conflict.
// Orden de pasos: primero la transición condicional de estado (hace de
// claim, MarkReviewed rechaza al review que pierde la carrera), recién
// después el grant y la notificación, para que un review perdedor
// nunca deje un grant ni una notificación de más.
func (s *Service) Review(ctx context.Context, in ReviewInput) (Request, error) {
	requestID := strings.TrimSpace(in.RequestID)
	reviewerID := strings.TrimSpace(in.ReviewerID)
	if requestID == "" || reviewerID == "" {
		return Request{}, ErrInvalidInput
	}

	r, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return Request{}, ErrNotFound
	}
	if r.Terminal() {
		return Request{}, ErrConflict
	}

	if !s.admins.IsSystemAdmin(ctx, reviewerID) {
		level, err := s.resolver.Resolve(ctx, reviewerID, r.IncidentID, "")
		if err != nil {
			return Request{}, err
		}
		if level != permissions.LevelOwner {
			return Request{}, ErrForbidden
		}
	}

	now := s.now()

	if in.Approve {
		r.Status = StatusApproved
	} else {
		r.Status = StatusDenied
	}
	r.ReviewedBy = reviewerID
	r.ReviewedAt = &now

	if err := s.repo.MarkReviewed(ctx, r); err != nil {
		return Request{}, err
	}

	if r.Status == StatusApproved {
		if _, err := s.grants.Grant(ctx, grants.GrantInput{
			Scope:   r.Scope(),
			UserID:  r.RequesterID,
			Level:   r.RequestedLevel,
			AddedBy: reviewerID,
		}); err != nil {
			return Request{}, err
		}
	}

	s.notifyOutcome(ctx, r, in.Reason)
	return r, nil
}

// ListByIncident lista pedidos del incidente, pendientes primero y
// dentro de cada grupo los más nuevos arriba. Autorización en el handler
// (owner del incidente o admin).
func (s *Service) ListByIncident(ctx context.Context, incidentID string) ([]Request, error) {
	incidentID = strings.TrimSpace(incidentID)
	if incidentID == "" {
		return nil, ErrInvalidInput
	}
	items, err := s.repo.ListByIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		if (items[i].Status == StatusPending) != (items[j].Status == StatusPending) {
			return items[i].Status == StatusPending
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Service) notifyOutcome(ctx context.Context, r Request, reason string) {
	msgCtx := map[string]string{
		"incident_id": r.IncidentID,
		"request_id":  r.ID,
	}
	if r.PatientLetter != "" {
		msgCtx["patient_letter"] = r.PatientLetter
	}

	if r.Status == StatusApproved {
		_ = s.sink.Notify(ctx, notify.Message{
			RecipientUserID: r.RequesterID,
			Type:            "access_approved",
			Title:           "Access request approved",
			Body:            "You were granted " + string(r.RequestedLevel) + " access",
			Context:         msgCtx,
		})
		return
	}

	body := "Your access request was denied"
	if reason != "" {
		body += ": " + reason
	}
	_ = s.sink.Notify(ctx, notify.Message{
		RecipientUserID: r.RequesterID,
		Type:            "access_denied",
		Title:           "Access request denied",
		Body:            body,
		Context:         msgCtx,
	})
}
