package grants

import (
	"context"
	"time"

	"eprf-collab/internal/permissions"
)

// Las implementaciones devuelven ErrNotFound en Get/Delete cuando el
// grant no existe.
type Repository interface {
	// Upsert crea o sobrescribe el grant de (scope, user). Si ya existe,
	// conserva CreatedAt y pisa level/expiry/addedBy.
	Upsert(ctx context.Context, g Grant) error
	Get(ctx context.Context, scope permissions.Scope, userID string) (Grant, error)
	Delete(ctx context.Context, scope permissions.Scope, userID string) error
	// ListByScope devuelve los grants del scope, más nuevo primero.
	ListByScope(ctx context.Context, scope permissions.Scope) ([]Grant, error)
	// DeleteExpired borra grants vencidos (sweep batch).
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
