package sharelinks

import (
	"context"
	"time"
)

// Las implementaciones devuelven ErrNotFound en GetByCode/Delete cuando
// el link no existe.
type Repository interface {
	Create(ctx context.Context, l Link) error
	GetByCode(ctx context.Context, code string) (Link, error)
	// MarkUsed setea usedBy solo si el link sigue sin usar.
	// claimed=false si otro (o el mismo) usuario ya lo tomó: el caller
	// relee y decide. Es el punto de convergencia de redenciones
	// concurrentes (unique key + write condicional).
	MarkUsed(ctx context.Context, code, userID string) (claimed bool, err error)
	Delete(ctx context.Context, code string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
