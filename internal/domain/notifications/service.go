package notifications

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"eprf-collab/internal/ports/notify"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Service es el inbox almacenado. Implementa notify.Sink, así que los
// services productores le escriben sin conocer este paquete.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

var _ notify.Sink = (*Service)(nil)

// Notify persiste la notificación. El caller la trata como best-effort;
// acá no hay reintentos (evita duplicados ante fallos transitorios).
func (s *Service) Notify(ctx context.Context, m notify.Message) error {
	recipient := strings.TrimSpace(m.RecipientUserID)
	if recipient == "" || strings.TrimSpace(m.Type) == "" {
		return ErrInvalidInput
	}

	n := Notification{
		ID:              uuid.NewString(),
		RecipientUserID: recipient,
		Type:            strings.TrimSpace(m.Type),
		Title:           strings.TrimSpace(m.Title),
		Message:         strings.TrimSpace(m.Body),
		Context:         m.Context,
		CreatedAt:       s.now(),
	}
	return s.repo.Create(ctx, n)
}

// ListMine lista el inbox del usuario, más nuevo primero.
func (s *Service) ListMine(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	items, err := s.repo.ListByRecipient(ctx, userID, unreadOnly)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

// MarkRead marca leída una notificación propia. Idempotente.
func (s *Service) MarkRead(ctx context.Context, id, userID string) (Notification, error) {
	id = strings.TrimSpace(id)
	userID = strings.TrimSpace(userID)
	if id == "" || userID == "" {
		return Notification{}, ErrInvalidInput
	}

	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Notification{}, ErrNotFound
	}
	if n.RecipientUserID != userID {
		return Notification{}, ErrForbidden
	}
	if n.Read {
		return n, nil
	}

	if err := s.repo.MarkRead(ctx, id); err != nil {
		return Notification{}, err
	}
	n.Read = true
	return n, nil
}
