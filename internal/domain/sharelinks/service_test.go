package sharelinks

import (
	"context"
	"testing"
	"time"

	"eprf-collab/internal/domain/grants"
	"eprf-collab/internal/permissions"
)

// -------------------------
// Fakes
// -------------------------

type testRepo struct {
	byCode map[string]Link
}

func newTestRepo() *testRepo {
	return &testRepo{byCode: map[string]Link{}}
}

func (r *testRepo) Create(ctx context.Context, l Link) error {
	r.byCode[l.Code] = l
	return nil
}

func (r *testRepo) GetByCode(ctx context.Context, code string) (Link, error) {
	l, ok := r.byCode[code]
	if !ok {
		return Link{}, ErrNotFound
	}
	return l, nil
}

func (r *testRepo) MarkUsed(ctx context.Context, code, userID string) (bool, error) {
	l, ok := r.byCode[code]
	if !ok {
		return false, ErrNotFound
	}
	if l.UsedBy != "" {
		return false, nil
	}
	l.UsedBy = userID
	r.byCode[code] = l
	return true, nil
}

func (r *testRepo) Delete(ctx context.Context, code string) error {
	if _, ok := r.byCode[code]; !ok {
		return ErrNotFound
	}
	delete(r.byCode, code)
	return nil
}

func (r *testRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	n := 0
	for code, l := range r.byCode {
		if l.Expired(now) {
			delete(r.byCode, code)
			n++
		}
	}
	return n, nil
}

type grantKey struct {
	incidentID string
	letter     string
	userID     string
}

type testGrantsRepo struct {
	byKey map[grantKey]grants.Grant
}

func newTestGrantsRepo() *testGrantsRepo {
	return &testGrantsRepo{byKey: map[grantKey]grants.Grant{}}
}

func (r *testGrantsRepo) Upsert(ctx context.Context, g grants.Grant) error {
	r.byKey[grantKey{g.IncidentID, g.PatientLetter, g.UserID}] = g
	return nil
}

func (r *testGrantsRepo) Get(ctx context.Context, scope permissions.Scope, userID string) (grants.Grant, error) {
	g, ok := r.byKey[grantKey{scope.IncidentID, scope.PatientLetter, userID}]
	if !ok {
		return grants.Grant{}, grants.ErrNotFound
	}
	return g, nil
}

func (r *testGrantsRepo) Delete(ctx context.Context, scope permissions.Scope, userID string) error {
	delete(r.byKey, grantKey{scope.IncidentID, scope.PatientLetter, userID})
	return nil
}

func (r *testGrantsRepo) ListByScope(ctx context.Context, scope permissions.Scope) ([]grants.Grant, error) {
	out := make([]grants.Grant, 0)
	for k, g := range r.byKey {
		if k.incidentID == scope.IncidentID && k.letter == scope.PatientLetter {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testGrantsRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

type testAuthors struct {
	authors map[string]map[string]string
}

func (a *testAuthors) AuthorOf(ctx context.Context, incidentID, letter string) (string, error) {
	return a.authors[incidentID][letter], nil
}

func (a *testAuthors) IncidentAuthor(ctx context.Context, incidentID string) (string, error) {
	return a.authors[incidentID]["A"], nil
}

type testLetters struct{}

func (testLetters) LettersOf(ctx context.Context, incidentID string) ([]string, error) {
	return nil, nil
}

func newTestService() (*Service, *testRepo, *testGrantsRepo) {
	repo := newTestRepo()
	grantsRepo := newTestGrantsRepo()
	authors := &testAuthors{authors: map[string]map[string]string{
		"INC-1": {"A": "alice"},
	}}

	resolver := permissions.NewResolver(authors, grants.NewLevelSource(grantsRepo))
	grantsSvc := grants.NewService(grantsRepo, testLetters{})
	grantsSvc.AttachResolver(resolver)

	return NewService(repo, grantsSvc, resolver), repo, grantsRepo
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_LadderAndExpiry(t *testing.T) {
	svc, _, grantsRepo := newTestService()

	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	// owner emite hasta manage
	l, err := svc.Create(context.Background(), CreateInput{
		IncidentID: "INC-1", Level: permissions.LevelManage,
		CreatedBy: "alice", ExpiresInHours: 24,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if l.Code == "" || l.ExpiresAt == nil || !l.ExpiresAt.Equal(now.Add(24*time.Hour)) {
		t.Fatalf("unexpected link: %+v", l)
	}

	// manage no emite links manage
	_ = grantsRepo.Upsert(context.Background(), grants.Grant{
		IncidentID: "INC-1", UserID: "bob", Level: permissions.LevelManage, AddedBy: "alice",
	})
	if _, err := svc.Create(context.Background(), CreateInput{
		IncidentID: "INC-1", Level: permissions.LevelManage, CreatedBy: "bob",
	}); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// pero sí view/edit
	if _, err := svc.Create(context.Background(), CreateInput{
		IncidentID: "INC-1", Level: permissions.LevelEdit, CreatedBy: "bob",
	}); err != nil {
		t.Fatalf("Create by manage error: %v", err)
	}

	// edit no emite nada
	_ = grantsRepo.Upsert(context.Background(), grants.Grant{
		IncidentID: "INC-1", UserID: "carol", Level: permissions.LevelEdit, AddedBy: "alice",
	})
	if _, err := svc.Create(context.Background(), CreateInput{
		IncidentID: "INC-1", Level: permissions.LevelView, CreatedBy: "carol",
	}); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden for edit creator, got %v", err)
	}
}

func TestService_Redeem_FirstUserWins(t *testing.T) {
	svc, _, grantsRepo := newTestService()

	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	l, err := svc.Create(context.Background(), CreateInput{
		IncidentID: "INC-1", PatientLetter: "A", Level: permissions.LevelEdit, CreatedBy: "alice",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	g, err := svc.Redeem(context.Background(), l.Code, "dave", "CREW-3")
	if err != nil {
		t.Fatalf("Redeem error: %v", err)
	}
	if g.UserID != "dave" || g.Level != permissions.LevelEdit {
		t.Fatalf("unexpected grant: %+v", g)
	}
	if _, err := grantsRepo.Get(context.Background(), permissions.PatientScope("INC-1", "A"), "dave"); err != nil {
		t.Fatalf("expected stored grant: %v", err)
	}

	// El mismo usuario de nuevo: éxito no-op
	if _, err := svc.Redeem(context.Background(), l.Code, "dave", "CREW-3"); err != nil {
		t.Fatalf("re-redeem by same user must succeed: %v", err)
	}

	// Otro usuario: rechazado
	if _, err := svc.Redeem(context.Background(), l.Code, "eve", ""); err != ErrUsedByOther {
		t.Fatalf("expected ErrUsedByOther, got %v", err)
	}
}

func TestService_Redeem_Expired(t *testing.T) {
	svc, _, _ := newTestService()

	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	l, err := svc.Create(context.Background(), CreateInput{
		IncidentID: "INC-1", Level: permissions.LevelView, CreatedBy: "alice", ExpiresInHours: 1,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	svc.now = func() time.Time { return now.Add(2 * time.Hour) }
	if _, err := svc.Redeem(context.Background(), l.Code, "dave", ""); err != ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestService_Redeem_NeverDowngrades(t *testing.T) {
	svc, _, grantsRepo := newTestService()

	l, err := svc.Create(context.Background(), CreateInput{
		IncidentID: "INC-1", Level: permissions.LevelView, CreatedBy: "alice",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// dave ya tiene edit; el link view no lo pisa
	_ = grantsRepo.Upsert(context.Background(), grants.Grant{
		IncidentID: "INC-1", UserID: "dave", Level: permissions.LevelEdit, AddedBy: "alice",
	})

	if _, err := svc.Redeem(context.Background(), l.Code, "dave", ""); err != nil {
		t.Fatalf("Redeem error: %v", err)
	}

	g, err := grantsRepo.Get(context.Background(), permissions.IncidentScope("INC-1"), "dave")
	if err != nil {
		t.Fatalf("expected existing grant: %v", err)
	}
	if g.Level != permissions.LevelEdit {
		t.Fatalf("redeem must not downgrade, got %s", g.Level)
	}
}

func TestService_Inspect_NoSideEffects(t *testing.T) {
	svc, repo, _ := newTestService()

	l, err := svc.Create(context.Background(), CreateInput{
		IncidentID: "INC-1", Level: permissions.LevelView, CreatedBy: "alice",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	info, err := svc.Inspect(context.Background(), l.Code)
	if err != nil {
		t.Fatalf("Inspect error: %v", err)
	}
	if info.IsUsed || info.IsExpired || info.Level != permissions.LevelView {
		t.Fatalf("unexpected info: %+v", info)
	}

	stored, _ := repo.GetByCode(context.Background(), l.Code)
	if stored.UsedBy != "" {
		t.Fatalf("inspect must not consume the link")
	}
}

func TestService_Revoke_Rules(t *testing.T) {
	svc, repo, grantsRepo := newTestService()

	mint := func() Link {
		t.Helper()
		l, err := svc.Create(context.Background(), CreateInput{
			IncidentID: "INC-1", Level: permissions.LevelView, CreatedBy: "alice",
		})
		if err != nil {
			t.Fatalf("Create error: %v", err)
		}
		return l
	}

	// Un tercero sin nivel no revoca
	l := mint()
	if err := svc.Revoke(context.Background(), l.Code, "eve", false); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// El creador sí
	if err := svc.Revoke(context.Background(), l.Code, "alice", false); err != nil {
		t.Fatalf("creator revoke error: %v", err)
	}
	if _, err := repo.GetByCode(context.Background(), l.Code); err != ErrNotFound {
		t.Fatalf("expected link deleted, got %v", err)
	}

	// bob con manage crea; el override de admin lo borra igual
	_ = grantsRepo.Upsert(context.Background(), grants.Grant{
		IncidentID: "INC-1", UserID: "bob", Level: permissions.LevelManage, AddedBy: "alice",
	})
	l2, err := svc.Create(context.Background(), CreateInput{
		IncidentID: "INC-1", Level: permissions.LevelView, CreatedBy: "bob",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := svc.Revoke(context.Background(), l2.Code, "eve", true); err != nil {
		t.Fatalf("admin override revoke error: %v", err)
	}
}

func TestService_PurgeExpired(t *testing.T) {
	svc, repo, _ := newTestService()

	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	past := now.Add(-time.Minute)
	_ = repo.Create(context.Background(), Link{
		Code: "dead", IncidentID: "INC-1", Level: permissions.LevelView,
		CreatedBy: "alice", CreatedAt: past, ExpiresAt: &past,
	})

	n, err := svc.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("PurgeExpired error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
}
