package sectionlocks

import (
	"context"
	"testing"
	"time"

	"eprf-collab/internal/permissions"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type lockKey struct {
	incidentID string
	letter     string
	section    string
}

type testRepo struct {
	byKey map[lockKey]Lock
}

func newTestRepo() *testRepo {
	return &testRepo{byKey: map[lockKey]Lock{}}
}

func (r *testRepo) Put(ctx context.Context, l Lock) (Lock, error) {
	k := lockKey{l.IncidentID, l.PatientLetter, l.Section}
	if prev, ok := r.byKey[k]; ok {
		l.Version = prev.Version + 1
	} else {
		l.Version = 1
	}
	r.byKey[k] = l
	return l, nil
}

func (r *testRepo) Get(ctx context.Context, incidentID, letter, section string) (Lock, error) {
	l, ok := r.byKey[lockKey{incidentID, letter, section}]
	if !ok {
		return Lock{}, ErrNotFound
	}
	return l, nil
}

func (r *testRepo) Delete(ctx context.Context, incidentID, letter, section string) error {
	k := lockKey{incidentID, letter, section}
	if _, ok := r.byKey[k]; !ok {
		return ErrNotFound
	}
	delete(r.byKey, k)
	return nil
}

func (r *testRepo) List(ctx context.Context, incidentID, letter string) ([]Lock, error) {
	out := make([]Lock, 0)
	for k, l := range r.byKey {
		if k.incidentID == incidentID && k.letter == letter {
			out = append(out, l)
		}
	}
	return out, nil
}

// -------------------------
// Resolver con niveles fijos
// -------------------------

type testAuthors struct {
	authors map[string]map[string]string
}

func (a *testAuthors) AuthorOf(ctx context.Context, incidentID, letter string) (string, error) {
	return a.authors[incidentID][letter], nil
}

func (a *testAuthors) IncidentAuthor(ctx context.Context, incidentID string) (string, error) {
	return a.authors[incidentID]["A"], nil
}

type testGrants struct {
	levels map[string]permissions.Level // userID -> level en cualquier scope
}

func (g *testGrants) ActiveLevel(ctx context.Context, scope permissions.Scope, userID string) (permissions.Level, bool, error) {
	l, ok := g.levels[userID]
	return l, ok, nil
}

func newTestService() (*Service, *testRepo, *testAuthors, *testGrants) {
	repo := newTestRepo()
	authors := &testAuthors{authors: map[string]map[string]string{
		"INC-1": {"A": "alice"},
	}}
	grants := &testGrants{levels: map[string]permissions.Level{}}
	svc := NewService(repo, permissions.NewResolver(authors, grants))
	return svc, repo, authors, grants
}

// -------------------------
// Tests
// -------------------------

func TestService_Lock_ManageLocksToEditOnly(t *testing.T) {
	svc, _, _, grants := newTestService()
	grants.levels["bob"] = permissions.LevelManage

	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	l, err := svc.Lock(context.Background(), LockInput{
		IncidentID: "INC-1", PatientLetter: "A", Section: "vitals",
		Level: permissions.LevelEdit, LockerID: "bob",
	})
	if err != nil {
		t.Fatalf("Lock error: %v", err)
	}
	if l.Version != 1 || l.LockedBy != "bob" || l.LockedAt != now {
		t.Fatalf("unexpected lock: %+v", l)
	}

	// manage no puede lockear a manage
	if _, err := svc.Lock(context.Background(), LockInput{
		IncidentID: "INC-1", PatientLetter: "A", Section: "vitals",
		Level: permissions.LevelManage, LockerID: "bob",
	}); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestService_Lock_OwnerLocksToManage_LastWriterWins(t *testing.T) {
	svc, _, _, grants := newTestService()
	grants.levels["bob"] = permissions.LevelManage

	l1, err := svc.Lock(context.Background(), LockInput{
		IncidentID: "INC-1", PatientLetter: "A", Section: "vitals",
		Level: permissions.LevelEdit, LockerID: "bob",
	})
	if err != nil {
		t.Fatalf("Lock #1 error: %v", err)
	}

	// alice (owner del incidente) pisa el lock y sube el piso
	l2, err := svc.Lock(context.Background(), LockInput{
		IncidentID: "INC-1", PatientLetter: "A", Section: "vitals",
		Level: permissions.LevelManage, LockerID: "alice",
	})
	if err != nil {
		t.Fatalf("Lock #2 error: %v", err)
	}
	if l2.Version != l1.Version+1 {
		t.Fatalf("expected version bump, got %d after %d", l2.Version, l1.Version)
	}
	if l2.LockedBy != "alice" || l2.Level != permissions.LevelManage {
		t.Fatalf("expected last writer alice@manage, got %+v", l2)
	}
}

func TestService_Lock_EditLevelActorForbidden(t *testing.T) {
	svc, _, _, grants := newTestService()
	grants.levels["carol"] = permissions.LevelEdit

	if _, err := svc.Lock(context.Background(), LockInput{
		IncidentID: "INC-1", PatientLetter: "A", Section: "vitals",
		Level: permissions.LevelEdit, LockerID: "carol",
	}); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestService_Unlock_Rules(t *testing.T) {
	svc, _, _, grants := newTestService()
	grants.levels["bob"] = permissions.LevelManage
	grants.levels["carol"] = permissions.LevelEdit

	lock := func() {
		t.Helper()
		if _, err := svc.Lock(context.Background(), LockInput{
			IncidentID: "INC-1", PatientLetter: "A", Section: "vitals",
			Level: permissions.LevelEdit, LockerID: "bob",
		}); err != nil {
			t.Fatalf("Lock error: %v", err)
		}
	}
	lock()

	// carol (edit, no supera el level edit del lock) no libera
	if _, err := svc.Unlock(context.Background(), "INC-1", "A", "vitals", "carol", false); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// el locker libera siempre
	removed, err := svc.Unlock(context.Background(), "INC-1", "A", "vitals", "bob", false)
	if err != nil || !removed {
		t.Fatalf("locker unlock failed: removed=%v err=%v", removed, err)
	}

	// sin lock: no-op, removed=false
	removed, err = svc.Unlock(context.Background(), "INC-1", "A", "vitals", "bob", false)
	if err != nil || removed {
		t.Fatalf("expected idempotent no-op, removed=%v err=%v", removed, err)
	}

	// override de admin salta las reglas
	lock()
	removed, err = svc.Unlock(context.Background(), "INC-1", "A", "vitals", "carol", true)
	if err != nil || !removed {
		t.Fatalf("admin override failed: removed=%v err=%v", removed, err)
	}

	// el owner supera estrictamente edit, también libera locks ajenos
	lock()
	removed, err = svc.Unlock(context.Background(), "INC-1", "A", "vitals", "alice", false)
	if err != nil || !removed {
		t.Fatalf("owner unlock failed: removed=%v err=%v", removed, err)
	}
}

func TestService_CanEdit(t *testing.T) {
	svc, _, _, grants := newTestService()
	grants.levels["bob"] = permissions.LevelManage

	// Sin lock: cualquiera con edit efectivo edita
	ok, err := svc.CanEdit(context.Background(), "INC-1", "A", "vitals", permissions.LevelEdit)
	if err != nil || !ok {
		t.Fatalf("expected editable without lock, ok=%v err=%v", ok, err)
	}

	if _, err := svc.Lock(context.Background(), LockInput{
		IncidentID: "INC-1", PatientLetter: "A", Section: "vitals",
		Level: permissions.LevelManage, LockerID: "alice",
	}); err != nil {
		t.Fatalf("Lock error: %v", err)
	}

	ok, err = svc.CanEdit(context.Background(), "INC-1", "A", "vitals", permissions.LevelEdit)
	if err != nil || ok {
		t.Fatalf("edit must not reach a manage lock, ok=%v err=%v", ok, err)
	}
	ok, err = svc.CanEdit(context.Background(), "INC-1", "A", "vitals", permissions.LevelManage)
	if err != nil || !ok {
		t.Fatalf("manage reaches a manage lock, ok=%v err=%v", ok, err)
	}
}
