package staticdir

import (
	"context"
	"strings"

	"eprf-collab/internal/ports/admin"
)

// Directory resuelve admins de sistema desde configuración estática.
// Suficiente para despliegues pequeños; un directorio real (LDAP, IdP)
// puede reemplazarlo implementando ports/admin.Directory.
type Directory struct {
	rootID string
	ids    map[string]struct{}
}

func New(rootID string, adminIDs []string) *Directory {
	ids := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		ids[id] = struct{}{}
	}
	return &Directory{rootID: strings.TrimSpace(rootID), ids: ids}
}

var _ admin.Directory = (*Directory)(nil)

func (d *Directory) IsSystemAdmin(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	if d.rootID != "" && userID == d.rootID {
		return true
	}
	_, ok := d.ids[userID]
	return ok
}
