package patients

import (
	"context"
	"testing"
	"time"
)

// -------------------------
// Fakes
// -------------------------

type patientKey struct {
	incidentID string
	letter     string
}

type testRepo struct {
	byKey map[patientKey]Patient
}

func newTestRepo() *testRepo {
	return &testRepo{byKey: map[patientKey]Patient{}}
}

func (r *testRepo) Create(ctx context.Context, p Patient) error {
	r.byKey[patientKey{p.IncidentID, p.Letter}] = p
	return nil
}

func (r *testRepo) Get(ctx context.Context, incidentID, letter string) (Patient, error) {
	p, ok := r.byKey[patientKey{incidentID, letter}]
	if !ok {
		return Patient{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListByIncident(ctx context.Context, incidentID string) ([]Patient, error) {
	out := make([]Patient, 0)
	for k, p := range r.byKey {
		if k.incidentID == incidentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *testRepo) UpdateAuthor(ctx context.Context, incidentID, letter, authorUserID, authorCallsign string, now time.Time) error {
	k := patientKey{incidentID, letter}
	p, ok := r.byKey[k]
	if !ok {
		return ErrNotFound
	}
	p.AuthorUserID = authorUserID
	p.AuthorCallsign = authorCallsign
	p.UpdatedAt = now
	r.byKey[k] = p
	return nil
}

func (r *testRepo) UpdateStatus(ctx context.Context, incidentID, letter string, status Status, now time.Time) error {
	k := patientKey{incidentID, letter}
	p, ok := r.byKey[k]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = now
	r.byKey[k] = p
	return nil
}

type testSeeder struct {
	calls []string // incidentID|letter
}

func (s *testSeeder) SeedManagersOnNewPatient(ctx context.Context, incidentID, letter string) error {
	s.calls = append(s.calls, incidentID+"|"+letter)
	return nil
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_NormalizesLetterAndSeeds(t *testing.T) {
	repo := newTestRepo()
	seeder := &testSeeder{}
	svc := NewService(repo)
	svc.AttachSeeder(seeder)

	now := time.Date(2026, 2, 14, 7, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	p, err := svc.Create(context.Background(), CreateInput{
		IncidentID:     "INC-1",
		Letter:         " b ",
		AuthorUserID:   "bob",
		AuthorCallsign: "CREW-2",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if p.Letter != "B" {
		t.Fatalf("expected letter normalized to B, got %q", p.Letter)
	}
	if p.Status != StatusIncomplete || p.CreatedAt != now {
		t.Fatalf("unexpected patient: %+v", p)
	}

	if len(seeder.calls) != 1 || seeder.calls[0] != "INC-1|B" {
		t.Fatalf("expected seeder call for INC-1/B, got %v", seeder.calls)
	}
}

func TestService_Create_DuplicateLetterIsConflict(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	if _, err := svc.Create(context.Background(), CreateInput{
		IncidentID: "INC-1", Letter: "A", AuthorUserID: "alice",
	}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if _, err := svc.Create(context.Background(), CreateInput{
		IncidentID: "INC-1", Letter: "a", AuthorUserID: "bob",
	}); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestService_Create_RejectsBadLetter(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	for _, letter := range []string{"", "AB", "1", "ñ"} {
		if _, err := svc.Create(context.Background(), CreateInput{
			IncidentID: "INC-1", Letter: letter, AuthorUserID: "alice",
		}); err != ErrInvalidInput {
			t.Fatalf("letter %q: expected ErrInvalidInput, got %v", letter, err)
		}
	}
}

func TestService_SetStatus(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	now := time.Date(2026, 2, 14, 7, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if _, err := svc.Create(context.Background(), CreateInput{
		IncidentID: "INC-1", Letter: "A", AuthorUserID: "alice",
	}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	p, err := svc.SetStatus(context.Background(), "INC-1", "A", StatusComplete)
	if err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}
	if p.Status != StatusComplete {
		t.Fatalf("expected complete, got %s", p.Status)
	}

	if _, err := svc.SetStatus(context.Background(), "INC-1", "A", Status("archived")); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), "INC-1", "Z", StatusComplete); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_OwnershipLookups(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	if _, err := svc.Create(context.Background(), CreateInput{
		IncidentID: "INC-1", Letter: "A", AuthorUserID: "alice",
	}); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateInput{
		IncidentID: "INC-1", Letter: "B", AuthorUserID: "bob",
	}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	author, err := svc.IncidentAuthor(context.Background(), "INC-1")
	if err != nil || author != "alice" {
		t.Fatalf("expected alice as incident author, got %q err=%v", author, err)
	}

	// Paciente inexistente: "" sin error, el resolver trata la ausencia
	author, err = svc.AuthorOf(context.Background(), "INC-1", "Z")
	if err != nil || author != "" {
		t.Fatalf("expected empty author, got %q err=%v", author, err)
	}

	letters, err := svc.LettersOf(context.Background(), "INC-1")
	if err != nil || len(letters) != 2 {
		t.Fatalf("expected 2 letters, got %v err=%v", letters, err)
	}
}
