package transfers

import (
	"context"
	"testing"
	"time"

	"eprf-collab/internal/domain/patients"
	"eprf-collab/internal/permissions"
	"eprf-collab/internal/ports/notify"
)

// -------------------------
// Fakes
// -------------------------

type patientKey struct {
	incidentID string
	letter     string
}

type testPatientsRepo struct {
	byKey map[patientKey]patients.Patient
}

func newTestPatientsRepo() *testPatientsRepo {
	return &testPatientsRepo{byKey: map[patientKey]patients.Patient{}}
}

func (r *testPatientsRepo) Create(ctx context.Context, p patients.Patient) error {
	r.byKey[patientKey{p.IncidentID, p.Letter}] = p
	return nil
}

func (r *testPatientsRepo) Get(ctx context.Context, incidentID, letter string) (patients.Patient, error) {
	p, ok := r.byKey[patientKey{incidentID, letter}]
	if !ok {
		return patients.Patient{}, patients.ErrNotFound
	}
	return p, nil
}

func (r *testPatientsRepo) ListByIncident(ctx context.Context, incidentID string) ([]patients.Patient, error) {
	out := make([]patients.Patient, 0)
	for k, p := range r.byKey {
		if k.incidentID == incidentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *testPatientsRepo) UpdateAuthor(ctx context.Context, incidentID, letter, authorUserID, authorCallsign string, now time.Time) error {
	k := patientKey{incidentID, letter}
	p, ok := r.byKey[k]
	if !ok {
		return patients.ErrNotFound
	}
	p.AuthorUserID = authorUserID
	p.AuthorCallsign = authorCallsign
	p.UpdatedAt = now
	r.byKey[k] = p
	return nil
}

func (r *testPatientsRepo) UpdateStatus(ctx context.Context, incidentID, letter string, status patients.Status, now time.Time) error {
	k := patientKey{incidentID, letter}
	p, ok := r.byKey[k]
	if !ok {
		return patients.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = now
	r.byKey[k] = p
	return nil
}

// repoAuthors lee la autoría del repo fake: los transfers de varios
// pasos dependen de ver la autoría ya actualizada.
type repoAuthors struct {
	repo *testPatientsRepo
}

func (a *repoAuthors) AuthorOf(ctx context.Context, incidentID, letter string) (string, error) {
	p, err := a.repo.Get(ctx, incidentID, letter)
	if err != nil {
		return "", nil
	}
	return p.AuthorUserID, nil
}

func (a *repoAuthors) IncidentAuthor(ctx context.Context, incidentID string) (string, error) {
	return a.AuthorOf(ctx, incidentID, "A")
}

type noGrants struct{}

func (noGrants) ActiveLevel(ctx context.Context, scope permissions.Scope, userID string) (permissions.Level, bool, error) {
	return permissions.LevelNone, false, nil
}

type testCleaner struct {
	dropped []string // incident|letter|user
}

func (c *testCleaner) DropGrantRow(ctx context.Context, scope permissions.Scope, userID string) error {
	c.dropped = append(c.dropped, scope.IncidentID+"|"+scope.PatientLetter+"|"+userID)
	return nil
}

type testSink struct {
	msgs []notify.Message
}

func (s *testSink) Notify(ctx context.Context, m notify.Message) error {
	s.msgs = append(s.msgs, m)
	return nil
}

func newTestService() (*Service, *testPatientsRepo, *testCleaner, *testSink) {
	repo := newTestPatientsRepo()
	cleaner := &testCleaner{}
	sink := &testSink{}
	resolver := permissions.NewResolver(&repoAuthors{repo: repo}, noGrants{})
	svc := NewService(repo, cleaner, resolver, sink)
	return svc, repo, cleaner, sink
}

func seedPatient(t *testing.T, repo *testPatientsRepo, incidentID, letter, author string) {
	t.Helper()
	if err := repo.Create(context.Background(), patients.Patient{
		IncidentID: incidentID, Letter: letter,
		AuthorUserID: author, Status: patients.StatusIncomplete,
	}); err != nil {
		t.Fatalf("seed patient: %v", err)
	}
}

// -------------------------
// Tests
// -------------------------

func TestService_TransferPatient_ByAuthor(t *testing.T) {
	svc, repo, cleaner, sink := newTestService()
	seedPatient(t, repo, "INC-1", "A", "alice")
	seedPatient(t, repo, "INC-1", "B", "bob")

	now := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	err := svc.TransferPatient(context.Background(), TransferInput{
		IncidentID: "INC-1", PatientLetter: "B",
		FromUserID: "bob", ToUserID: "carol", ToCallsign: "CREW-7",
		RequestedBy: "bob",
	})
	if err != nil {
		t.Fatalf("TransferPatient error: %v", err)
	}

	p, _ := repo.Get(context.Background(), "INC-1", "B")
	if p.AuthorUserID != "carol" || p.AuthorCallsign != "CREW-7" {
		t.Fatalf("expected carol as author, got %+v", p)
	}
	if p.UpdatedAt != now {
		t.Fatalf("expected UpdatedAt bumped")
	}

	// La fila de grant redundante del nuevo owner se limpia
	if len(cleaner.dropped) != 1 || cleaner.dropped[0] != "INC-1|B|carol" {
		t.Fatalf("expected redundant grant drop for carol on B, got %v", cleaner.dropped)
	}

	// Notificados ambos lados
	if len(sink.msgs) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(sink.msgs))
	}
	if sink.msgs[0].Type != "ownership_received" || sink.msgs[0].RecipientUserID != "carol" {
		t.Fatalf("unexpected first notification: %+v", sink.msgs[0])
	}
	if sink.msgs[1].Type != "ownership_released" || sink.msgs[1].RecipientUserID != "bob" {
		t.Fatalf("unexpected second notification: %+v", sink.msgs[1])
	}
}

func TestService_TransferPatient_IncidentOwnerMayTransferAny(t *testing.T) {
	svc, repo, _, _ := newTestService()
	seedPatient(t, repo, "INC-1", "A", "alice")
	seedPatient(t, repo, "INC-1", "B", "bob")

	// alice no es autora de B, pero sí owner del incidente
	err := svc.TransferPatient(context.Background(), TransferInput{
		IncidentID: "INC-1", PatientLetter: "B",
		FromUserID: "bob", ToUserID: "carol",
		RequestedBy: "alice",
	})
	if err != nil {
		t.Fatalf("TransferPatient error: %v", err)
	}
}

func TestService_TransferPatient_Denials(t *testing.T) {
	svc, repo, _, _ := newTestService()
	seedPatient(t, repo, "INC-1", "A", "alice")
	seedPatient(t, repo, "INC-1", "B", "bob")

	// carol no es ni autora ni owner
	if err := svc.TransferPatient(context.Background(), TransferInput{
		IncidentID: "INC-1", PatientLetter: "B",
		FromUserID: "bob", ToUserID: "dave",
		RequestedBy: "carol",
	}); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// from desactualizado: la autoría real ya no es de quien dice
	if err := svc.TransferPatient(context.Background(), TransferInput{
		IncidentID: "INC-1", PatientLetter: "B",
		FromUserID: "carol", ToUserID: "dave",
		RequestedBy: "alice",
	}); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// from == to no tiene sentido
	if err := svc.TransferPatient(context.Background(), TransferInput{
		IncidentID: "INC-1", PatientLetter: "B",
		FromUserID: "bob", ToUserID: "bob",
		RequestedBy: "bob",
	}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	if err := svc.TransferPatient(context.Background(), TransferInput{
		IncidentID: "INC-1", PatientLetter: "Z",
		FromUserID: "bob", ToUserID: "carol",
		RequestedBy: "bob",
	}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_TransferPatient_OldOwnerCannotTransferAgain(t *testing.T) {
	svc, repo, _, _ := newTestService()
	seedPatient(t, repo, "INC-1", "A", "alice")
	seedPatient(t, repo, "INC-1", "C", "dave")

	if err := svc.TransferPatient(context.Background(), TransferInput{
		IncidentID: "INC-1", PatientLetter: "C",
		FromUserID: "dave", ToUserID: "erin",
		RequestedBy: "dave",
	}); err != nil {
		t.Fatalf("TransferPatient error: %v", err)
	}

	p, _ := repo.Get(context.Background(), "INC-1", "C")
	if p.AuthorUserID != "erin" {
		t.Fatalf("expected erin as author, got %s", p.AuthorUserID)
	}

	// dave ya no tiene ninguna autoridad sobre C: Forbidden, no Conflict
	if err := svc.TransferPatient(context.Background(), TransferInput{
		IncidentID: "INC-1", PatientLetter: "C",
		FromUserID: "dave", ToUserID: "frank",
		RequestedBy: "dave",
	}); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden for old owner, got %v", err)
	}
}

func TestService_TransferIncident_MovesAllOwnedPatients(t *testing.T) {
	svc, repo, _, _ := newTestService()
	seedPatient(t, repo, "INC-1", "A", "alice")
	seedPatient(t, repo, "INC-1", "B", "alice")
	seedPatient(t, repo, "INC-1", "C", "bob") // de otro: no se toca

	results, err := svc.TransferIncident(context.Background(), TransferInput{
		IncidentID: "INC-1",
		FromUserID: "alice", ToUserID: "dave", ToCallsign: "CREW-9",
		RequestedBy: "alice",
	})
	if err != nil {
		t.Fatalf("TransferIncident error: %v", err)
	}

	// A primero, después B; C queda fuera
	if len(results) != 2 {
		t.Fatalf("expected 2 steps, got %d: %+v", len(results), results)
	}
	if results[0].PatientLetter != "A" || !results[0].OK {
		t.Fatalf("expected A first and OK, got %+v", results[0])
	}
	if results[1].PatientLetter != "B" || !results[1].OK {
		t.Fatalf("expected B OK, got %+v", results[1])
	}

	for _, letter := range []string{"A", "B"} {
		p, _ := repo.Get(context.Background(), "INC-1", letter)
		if p.AuthorUserID != "dave" {
			t.Fatalf("expected dave as author of %s, got %s", letter, p.AuthorUserID)
		}
	}
	c, _ := repo.Get(context.Background(), "INC-1", "C")
	if c.AuthorUserID != "bob" {
		t.Fatalf("patient C must keep its author, got %s", c.AuthorUserID)
	}
}

func TestService_TransferIncident_OnlyIncidentOwner(t *testing.T) {
	svc, repo, _, _ := newTestService()
	seedPatient(t, repo, "INC-1", "A", "alice")
	seedPatient(t, repo, "INC-1", "B", "bob")

	// bob es autor de B pero no owner del incidente
	if _, err := svc.TransferIncident(context.Background(), TransferInput{
		IncidentID: "INC-1",
		FromUserID: "bob", ToUserID: "carol",
		RequestedBy: "bob",
	}); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
