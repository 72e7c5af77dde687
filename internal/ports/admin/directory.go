package admin

import "context"

// Directory responde si un usuario es admin de sistema.
// El set real (un id raíz fijo + lista dinámica) vive fuera del core;
// acá solo se consume como capability inyectada.
type Directory interface {
	IsSystemAdmin(ctx context.Context, userID string) bool
}
