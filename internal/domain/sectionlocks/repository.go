package sectionlocks

import "context"

// Las implementaciones devuelven ErrNotFound en Get/Delete cuando el
// lock no existe.
type Repository interface {
	// Put escribe el lock con last-writer-wins sobre la clave
	// (incidente, letra, sección). Si pisa uno existente, devuelve el
	// lock con Version = anterior + 1.
	Put(ctx context.Context, l Lock) (Lock, error)
	Get(ctx context.Context, incidentID, letter, section string) (Lock, error)
	Delete(ctx context.Context, incidentID, letter, section string) error
	List(ctx context.Context, incidentID, letter string) ([]Lock, error)
}
