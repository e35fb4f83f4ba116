package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/psds-microservice/work-buddy/internal/errs"
	"github.com/psds-microservice/work-buddy/internal/idgen"
	"github.com/psds-microservice/work-buddy/internal/model"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestMemory(seed Seed) *Memory {
	return NewMemory(seed, Options{Now: func() time.Time { return fixedNow }})
}

func TestMemoryListSeedOrder(t *testing.T) {
	m := newTestMemory(DemoSeed(fixedNow))
	items, err := m.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"1", "2", "3"}
	if len(items) != len(want) {
		t.Fatalf("expected %d requests, got %d", len(want), len(items))
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, items[i].ID)
		}
	}
}

func TestMemoryCreate(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(DemoSeed(fixedNow))
	req, err := m.Create(ctx, NewRequest{UserID: "1", Title: "T", Description: "D"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.Status != model.RequestStatusPending {
		t.Fatalf("expected pending, got %s", req.Status)
	}
	if req.Priority != model.PriorityMedium {
		t.Fatalf("expected default priority medium, got %s", req.Priority)
	}
	if !req.CreatedAt.Equal(fixedNow) {
		t.Fatalf("expected created_at %v, got %v", fixedNow, req.CreatedAt)
	}
	if len(req.Messages) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(req.Messages))
	}
	first := req.Messages[0]
	if first.Text != "D" || first.Sender != model.RoleUser || first.Status != model.DeliverySent {
		t.Fatalf("unexpected first message %+v", first)
	}

	items, _ := m.List(ctx)
	if len(items) != 4 || items[0].ID != req.ID {
		t.Fatalf("expected new request prepended, got first=%s len=%d", items[0].ID, len(items))
	}
	if req.ID == "1" || req.ID == "2" || req.ID == "3" {
		t.Fatalf("new id %s collides with the seed", req.ID)
	}
}

func TestMemoryCreateRejectsEmptyFields(t *testing.T) {
	ctx := context.Background()
	cases := []NewRequest{
		{UserID: "1", Title: "", Description: "D"},
		{UserID: "1", Title: "T", Description: ""},
		{UserID: "1", Title: "   ", Description: "D"},
		{UserID: "1", Title: "T", Description: "\t\n"},
	}
	for _, in := range cases {
		m := newTestMemory(DemoSeed(fixedNow))
		if _, err := m.Create(ctx, in); !errors.Is(err, errs.ErrEmptyField) {
			t.Fatalf("%+v: expected ErrEmptyField, got %v", in, err)
		}
		items, _ := m.List(ctx)
		if len(items) != 3 {
			t.Fatalf("%+v: store changed, %d requests", in, len(items))
		}
	}
}

func TestMemoryCreateIDsNeverReused(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(Seed{}, Options{RequestIDs: idgen.NewSequence(0)})
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		r, err := m.Create(ctx, NewRequest{UserID: "u", Title: "t", Description: "d"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[r.ID] {
			t.Fatalf("id %s reused", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestMemorySetStatus(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(DemoSeed(fixedNow))
	r, err := m.SetStatus(ctx, "3", model.RequestStatusCompleted)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if r.Status != model.RequestStatusCompleted {
		t.Fatalf("expected completed, got %s", r.Status)
	}
	// Any status is reachable from any other, including itself.
	for _, s := range []model.RequestStatus{model.RequestStatusPending, model.RequestStatusPending, model.RequestStatusInProgress} {
		if _, err := m.SetStatus(ctx, "3", s); err != nil {
			t.Fatalf("transition to %s: %v", s, err)
		}
	}
}

func TestMemorySetStatusUnknownID(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(DemoSeed(fixedNow))
	before, _ := m.List(ctx)
	if _, err := m.SetStatus(ctx, "404", model.RequestStatusCompleted); !errors.Is(err, errs.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
	after, _ := m.List(ctx)
	for i := range before {
		if before[i].Status != after[i].Status {
			t.Fatalf("request %s changed status %s -> %s", before[i].ID, before[i].Status, after[i].Status)
		}
	}
}

func TestMemorySetStatusInvalid(t *testing.T) {
	m := newTestMemory(DemoSeed(fixedNow))
	if _, err := m.SetStatus(context.Background(), "1", "closed"); !errors.Is(err, errs.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestMemoryAppendKeepsCallOrder(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(DemoSeed(fixedNow))
	texts := []string{"one", "two", "three", "four"}
	for i, text := range texts {
		sender := model.RoleUser
		if i%2 == 1 {
			sender = model.RoleAdmin
		}
		if _, err := m.AppendMessage(ctx, "3", text, sender); err != nil {
			t.Fatalf("append %q: %v", text, err)
		}
	}
	r, _ := m.Get(ctx, "3")
	if len(r.Messages) != 1+len(texts) {
		t.Fatalf("expected %d messages, got %d", 1+len(texts), len(r.Messages))
	}
	for i, text := range texts {
		got := r.Messages[i+1]
		if got.Text != text {
			t.Fatalf("position %d: expected %q, got %q", i+1, text, got.Text)
		}
		if got.Status != model.DeliverySent {
			t.Fatalf("expected sent, got %s", got.Status)
		}
	}
	if r.Messages[2].Sender != model.RoleAdmin {
		t.Fatalf("expected admin sender, got %s", r.Messages[2].Sender)
	}
}

func TestMemoryAppendRejects(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(DemoSeed(fixedNow))
	if _, err := m.AppendMessage(ctx, "1", "   ", model.RoleUser); !errors.Is(err, errs.ErrEmptyField) {
		t.Fatalf("expected ErrEmptyField, got %v", err)
	}
	if _, err := m.AppendMessage(ctx, "404", "hi", model.RoleUser); !errors.Is(err, errs.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
	r, _ := m.Get(ctx, "1")
	if len(r.Messages) != 3 {
		t.Fatalf("expected thread untouched, got %d messages", len(r.Messages))
	}
}

func TestMemorySnapshotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(DemoSeed(fixedNow))
	before, _ := m.Get(ctx, "1")
	before.Messages[0].Text = "mutated by caller"
	if _, err := m.AppendMessage(ctx, "1", "new", model.RoleAdmin); err != nil {
		t.Fatalf("append: %v", err)
	}
	after, _ := m.Get(ctx, "1")
	if after.Messages[0].Text == "mutated by caller" {
		t.Fatalf("caller mutation leaked into the store")
	}
	if len(before.Messages) != 3 {
		t.Fatalf("earlier snapshot observed a later append")
	}
}

func TestMemoryMarkReadIsMonotonic(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(DemoSeed(fixedNow))
	if _, err := m.AppendMessage(ctx, "3", "admin reply", model.RoleAdmin); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := m.MarkRead(ctx, "3", model.RoleAdmin); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	r, _ := m.Get(ctx, "3")
	if r.Messages[0].Status != model.DeliveryRead {
		t.Fatalf("user message should be read, got %s", r.Messages[0].Status)
	}
	if r.Messages[1].Status != model.DeliverySent {
		t.Fatalf("admin's own message should stay sent, got %s", r.Messages[1].Status)
	}
	if err := m.MarkRead(ctx, "404", model.RoleAdmin); !errors.Is(err, errs.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(DemoSeed(fixedNow))
	users, _ := m.Users(ctx)
	open := map[string]int{}
	for _, u := range users {
		open[u.ID] = u.OpenRequests
	}
	if open["1"] != 1 || open["2"] != 1 || open["3"] != 0 {
		t.Fatalf("unexpected open counts %v", open)
	}

	u, err := m.EnsureUser(ctx, " New.Person@Example.com ")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if u.Email != "new.person@example.com" || u.Name != "New Person" {
		t.Fatalf("unexpected user %+v", u)
	}
	again, _ := m.EnsureUser(ctx, "new.person@example.com")
	if again.ID != u.ID {
		t.Fatalf("expected same user, got %s and %s", u.ID, again.ID)
	}
	known, _ := m.EnsureUser(ctx, "john.doe@email.com")
	if known.ID != "1" {
		t.Fatalf("expected seeded user 1, got %s", known.ID)
	}
	accented, err := m.EnsureUser(ctx, "Élodie.Dupont@example.com")
	if err != nil || accented.Name != "Élodie Dupont" || accented.Email != "élodie.dupont@example.com" {
		t.Fatalf("unexpected accented user %+v, err %v", accented, err)
	}
	if _, err := m.UserByEmail(ctx, "nobody@example.com"); !errors.Is(err, errs.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
