package accessrequests

import "context"

// Las implementaciones devuelven ErrNotFound en GetByID cuando el
// pedido no existe. MarkReviewed es condicional: solo escribe si el
// pedido sigue pending y devuelve ErrConflict si otro review llegó
// primero, así dos reviews concurrentes convergen en una sola
// transición terminal.
type Repository interface {
	Create(ctx context.Context, r Request) error
	GetByID(ctx context.Context, id string) (Request, error)
	MarkReviewed(ctx context.Context, r Request) error
	ListByIncident(ctx context.Context, incidentID string) ([]Request, error)
}
