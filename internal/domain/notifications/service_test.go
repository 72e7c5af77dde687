package notifications

import (
	"context"
	"testing"
	"time"

	"eprf-collab/internal/ports/notify"
)

type testRepo struct {
	byID map[string]Notification
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Notification{}}
}

func (r *testRepo) Create(ctx context.Context, n Notification) error {
	r.byID[n.ID] = n
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Notification, error) {
	n, ok := r.byID[id]
	if !ok {
		return Notification{}, ErrNotFound
	}
	return n, nil
}

func (r *testRepo) ListByRecipient(ctx context.Context, recipientUserID string, unreadOnly bool) ([]Notification, error) {
	out := make([]Notification, 0)
	for _, n := range r.byID {
		if n.RecipientUserID != recipientUserID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *testRepo) MarkRead(ctx context.Context, id string) error {
	n, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	n.Read = true
	r.byID[id] = n
	return nil
}

func TestService_Notify_PersistsMessage(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	now := time.Date(2026, 8, 1, 15, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	err := svc.Notify(context.Background(), notify.Message{
		RecipientUserID: "bob",
		Type:            "ownership_received",
		Title:           "Patient record transferred to you",
		Body:            "You are now the author of patient B",
		Context:         map[string]string{"incident_id": "INC-1", "patient_letter": "B"},
	})
	if err != nil {
		t.Fatalf("Notify error: %v", err)
	}

	items, err := svc.ListMine(context.Background(), "bob", false)
	if err != nil {
		t.Fatalf("ListMine error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(items))
	}
	n := items[0]
	if n.ID == "" || n.Read || n.CreatedAt != now || n.Context["incident_id"] != "INC-1" {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestService_Notify_RejectsEmptyRecipient(t *testing.T) {
	svc := NewService(newTestRepo())
	if err := svc.Notify(context.Background(), notify.Message{Type: "x"}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_ListMine_UnreadFilter_NewestFirst(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	base := time.Date(2026, 8, 1, 15, 0, 0, 0, time.UTC)
	seed := func(id string, createdAt time.Time, read bool) {
		_ = repo.Create(context.Background(), Notification{
			ID: id, RecipientUserID: "bob", Type: "t",
			Read: read, CreatedAt: createdAt,
		})
	}
	seed("n1", base, true)
	seed("n2", base.Add(time.Hour), false)
	seed("n3", base.Add(2*time.Hour), false)

	items, err := svc.ListMine(context.Background(), "bob", true)
	if err != nil {
		t.Fatalf("ListMine error: %v", err)
	}
	if len(items) != 2 || items[0].ID != "n3" || items[1].ID != "n2" {
		t.Fatalf("expected [n3 n2], got %+v", items)
	}
}

func TestService_MarkRead_OwnOnly_Idempotent(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	_ = repo.Create(context.Background(), Notification{
		ID: "n1", RecipientUserID: "bob", Type: "t",
	})

	// Solo el destinatario
	if _, err := svc.MarkRead(context.Background(), "n1", "eve"); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	n, err := svc.MarkRead(context.Background(), "n1", "bob")
	if err != nil || !n.Read {
		t.Fatalf("MarkRead failed: %+v err=%v", n, err)
	}

	// Segunda vez: no-op
	n, err = svc.MarkRead(context.Background(), "n1", "bob")
	if err != nil || !n.Read {
		t.Fatalf("MarkRead must be idempotent: %+v err=%v", n, err)
	}

	if _, err := svc.MarkRead(context.Background(), "missing", "bob"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
