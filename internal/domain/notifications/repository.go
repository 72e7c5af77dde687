package notifications

import "context"

// Las implementaciones devuelven ErrNotFound en GetByID/MarkRead cuando
// la notificación no existe.
type Repository interface {
	Create(ctx context.Context, n Notification) error
	GetByID(ctx context.Context, id string) (Notification, error)
	ListByRecipient(ctx context.Context, recipientUserID string, unreadOnly bool) ([]Notification, error)
	MarkRead(ctx context.Context, id string) error
}
