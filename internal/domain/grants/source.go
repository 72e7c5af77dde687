package grants

import (
	"context"
	"errors"
	"time"

	"eprf-collab/internal/permissions"
)

// LevelSource adapta el Repository al GrantSource del resolver.
// Filtra expirados: un grant vencido resuelve como ausente aunque el
// sweep todavía no lo haya borrado.
type LevelSource struct {
	repo Repository
	now  func() time.Time
}

func NewLevelSource(repo Repository) *LevelSource {
	return &LevelSource{repo: repo, now: time.Now}
}

func (ls *LevelSource) ActiveLevel(ctx context.Context, scope permissions.Scope, userID string) (permissions.Level, bool, error) {
	g, err := ls.repo.Get(ctx, scope, userID)
	if errors.Is(err, ErrNotFound) {
		return permissions.LevelNone, false, nil
	}
	if err != nil {
		return permissions.LevelNone, false, err
	}
	if g.Expired(ls.now()) {
		return permissions.LevelNone, false, nil
	}
	return g.Level, true, nil
}
