package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/psds-microservice/work-buddy/internal/auth"
	"github.com/psds-microservice/work-buddy/internal/errs"
	"github.com/psds-microservice/work-buddy/internal/kafka"
	"github.com/psds-microservice/work-buddy/internal/model"
	"github.com/psds-microservice/work-buddy/internal/session"
	"github.com/psds-microservice/work-buddy/internal/store"
	"github.com/rs/zerolog"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type recordedEvent struct {
	name    string
	payload map[string]interface{}
}

type fakeProducer struct {
	events chan recordedEvent
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{events: make(chan recordedEvent, 16)}
}

func (f *fakeProducer) ProduceRequestEvent(_ context.Context, event string, payload map[string]interface{}) {
	f.events <- recordedEvent{name: event, payload: payload}
}

func (f *fakeProducer) next(t *testing.T) recordedEvent {
	t.Helper()
	select {
	case e := <-f.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatalf("no event produced")
	}
	return recordedEvent{}
}

type fakeIndexer struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeIndexer) IndexRequestAsync(r model.Request) {
	f.mu.Lock()
	f.ids = append(f.ids, r.ID)
	f.mu.Unlock()
}

type fixture struct {
	svc      *DeskService
	store    *store.Memory
	producer *fakeProducer
	indexer  *fakeIndexer
	sessions *session.Manager
}

func newFixture(seed store.Seed) *fixture {
	st := store.NewMemory(seed, store.Options{Now: func() time.Time { return testNow }})
	f := &fixture{store: st, producer: newFakeProducer(), indexer: &fakeIndexer{}, sessions: session.NewManager()}
	f.svc = NewDeskService(Deps{Store: st, Producer: f.producer, Search: f.indexer, Logger: zerolog.Nop()})
	return f
}

func (f *fixture) login(t *testing.T, id auth.Identity) *session.Session {
	t.Helper()
	sid, err := f.svc.ResolveIdentity(context.Background(), id)
	if err != nil {
		t.Fatalf("resolve identity: %v", err)
	}
	return f.sessions.Create(sid)
}

func userIdentity(email string) auth.Identity {
	return auth.Identity{Role: model.RoleUser, Email: email}
}

var adminIdentity = auth.Identity{Role: model.RoleAdmin}

func TestDashboardDefaultsToFirstRequest(t *testing.T) {
	f := newFixture(store.DemoSeed(testNow))
	ctx := context.Background()

	john := f.login(t, userIdentity("john.doe@email.com"))
	d, err := f.svc.Dashboard(ctx, john)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(d.Requests) != 2 {
		t.Fatalf("expected john's 2 requests, got %d", len(d.Requests))
	}
	if d.Active == nil || d.Active.ID != "1" {
		t.Fatalf("expected request 1 active, got %+v", d.Active)
	}
	if d.User == nil || d.User.Name != "John Doe" {
		t.Fatalf("expected john's directory entry, got %+v", d.User)
	}

	admin := f.login(t, adminIdentity)
	d, _ = f.svc.Dashboard(ctx, admin)
	if len(d.Requests) != 3 || d.Active == nil || d.Active.ID != "1" {
		t.Fatalf("unexpected admin dashboard %+v", d)
	}
	if d.Stats == nil || d.Stats.TotalRequests != 3 || d.Stats.ActiveUsers != 2 {
		t.Fatalf("unexpected stats %+v", d.Stats)
	}
	if d.ActiveFor == nil || d.ActiveFor.Email != "john.doe@email.com" {
		t.Fatalf("expected active request owner, got %+v", d.ActiveFor)
	}
}

func TestDashboardWithoutRequestsHasNoSelection(t *testing.T) {
	f := newFixture(store.DemoSeed(testNow))
	ctx := context.Background()
	newcomer := f.login(t, userIdentity("new@example.com"))
	d, err := f.svc.Dashboard(ctx, newcomer)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Active != nil || len(d.Requests) != 0 {
		t.Fatalf("expected empty dashboard, got %+v", d)
	}
	sent, err := f.svc.Compose(ctx, newcomer, "hello")
	if err != nil || sent {
		t.Fatalf("expected compose to be a no-op, got sent=%v err=%v", sent, err)
	}
	if got := countMessages(t, f.store); got != 6 {
		t.Fatalf("store changed: %d messages", got)
	}
	if newcomer.View().Draft != "hello" {
		t.Fatalf("expected draft kept, got %q", newcomer.View().Draft)
	}
}

func countMessages(t *testing.T, st store.Store) int {
	t.Helper()
	all, err := st.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	n := 0
	for _, r := range all {
		n += len(r.Messages)
	}
	return n
}

func TestCreateRequestBecomesActive(t *testing.T) {
	f := newFixture(store.DemoSeed(testNow))
	ctx := context.Background()
	john := f.login(t, userIdentity("john.doe@email.com"))
	_, _ = f.svc.Dashboard(ctx, john)

	r, err := f.svc.CreateRequest(ctx, john, "T", "D")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if john.View().ActiveID != r.ID {
		t.Fatalf("expected new request active, got %s", john.View().ActiveID)
	}
	d, _ := f.svc.Dashboard(ctx, john)
	if d.Requests[0].ID != r.ID {
		t.Fatalf("expected new request first")
	}
	e := f.producer.next(t)
	if e.name != kafka.EventRequestCreated || e.payload["request_id"] != r.ID {
		t.Fatalf("unexpected event %+v", e)
	}

	if _, err := f.svc.CreateRequest(ctx, john, "", "D"); !errors.Is(err, errs.ErrEmptyField) {
		t.Fatalf("expected ErrEmptyField, got %v", err)
	}
	admin := f.login(t, adminIdentity)
	if _, err := f.svc.CreateRequest(ctx, admin, "T", "D"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("expected admin to be refused, got %v", err)
	}
}

func TestSetStatusIsAdminOnly(t *testing.T) {
	f := newFixture(store.DemoSeed(testNow))
	ctx := context.Background()
	john := f.login(t, userIdentity("john.doe@email.com"))
	if _, err := f.svc.SetStatus(ctx, john, "1", model.RequestStatusCompleted); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	admin := f.login(t, adminIdentity)
	r, err := f.svc.SetStatus(ctx, admin, "3", model.RequestStatusInProgress)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if r.Status != model.RequestStatusInProgress {
		t.Fatalf("expected in-progress, got %s", r.Status)
	}
	e := f.producer.next(t)
	if e.name != kafka.EventRequestStatusChanged || e.payload["previous_status"] != "pending" {
		t.Fatalf("unexpected event %+v", e)
	}
	if _, err := f.svc.SetStatus(ctx, admin, "404", model.RequestStatusCompleted); !errors.Is(err, errs.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
	if _, err := f.svc.SetStatus(ctx, admin, "1", "done"); !errors.Is(err, errs.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestFilterAndSelect(t *testing.T) {
	f := newFixture(store.DemoSeed(testNow))
	ctx := context.Background()
	admin := f.login(t, adminIdentity)

	if err := f.svc.SetFilter(admin, "pending"); err != nil {
		t.Fatalf("filter: %v", err)
	}
	d, _ := f.svc.Dashboard(ctx, admin)
	if len(d.Requests) != 1 || d.Requests[0].ID != "3" {
		t.Fatalf("expected only request 3, got %+v", d.Requests)
	}
	if err := f.svc.SetFilter(admin, "closed"); !errors.Is(err, errs.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	if err := f.svc.Select(ctx, admin, "3"); err != nil {
		t.Fatalf("select: %v", err)
	}
	r, _ := f.store.Get(ctx, "3")
	if r.Messages[0].Status != model.DeliveryRead {
		t.Fatalf("expected user message read after admin opened the thread, got %s", r.Messages[0].Status)
	}

	maria := f.login(t, userIdentity("maria.garcia@email.com"))
	_, _ = f.svc.Dashboard(ctx, maria)
	if err := f.svc.Select(ctx, maria, "1"); !errors.Is(err, errs.ErrRequestNotFound) {
		t.Fatalf("expected foreign request to be invisible, got %v", err)
	}
	if maria.View().ActiveID != "3" {
		t.Fatalf("selection changed after a refused select: %s", maria.View().ActiveID)
	}
}

func TestComposeAppendsInOrder(t *testing.T) {
	f := newFixture(store.DemoSeed(testNow))
	ctx := context.Background()
	admin := f.login(t, adminIdentity)
	if err := f.svc.Select(ctx, admin, "3"); err != nil {
		t.Fatalf("select: %v", err)
	}
	for _, text := range []string{"first", "  second  ", "third"} {
		sent, err := f.svc.Compose(ctx, admin, text)
		if err != nil || !sent {
			t.Fatalf("compose %q: sent=%v err=%v", text, sent, err)
		}
		if admin.View().Draft != "" {
			t.Fatalf("draft not cleared")
		}
	}
	sent, _ := f.svc.Compose(ctx, admin, "   ")
	if sent {
		t.Fatalf("blank text must not be sent")
	}
	r, _ := f.store.Get(ctx, "3")
	want := []string{"first", "second", "third"}
	if len(r.Messages) != 1+len(want) {
		t.Fatalf("expected %d messages, got %d", 1+len(want), len(r.Messages))
	}
	for i, text := range want {
		m := r.Messages[i+1]
		if m.Text != text || m.Sender != model.RoleAdmin || m.Status != model.DeliverySent {
			t.Fatalf("message %d: %+v", i+1, m)
		}
	}
	e := f.producer.next(t)
	if e.name != kafka.EventMessageAppended {
		t.Fatalf("unexpected event %s", e.name)
	}
}

func TestAdminOnlyReads(t *testing.T) {
	f := newFixture(store.DemoSeed(testNow))
	ctx := context.Background()
	john := f.login(t, userIdentity("john.doe@email.com"))
	if _, err := f.svc.Users(ctx, john); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.svc.Stats(ctx, nil); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	admin := f.login(t, adminIdentity)
	users, err := f.svc.Users(ctx, admin)
	if err != nil || len(users) != 3 {
		t.Fatalf("users: %v (%d)", err, len(users))
	}
}

func TestResolveIdentityRegistersUnknownUser(t *testing.T) {
	f := newFixture(store.DemoSeed(testNow))
	sid, err := f.svc.ResolveIdentity(context.Background(), userIdentity("user@gmail.com"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sid.UserID == "" || sid.UserID == "1" {
		t.Fatalf("expected a fresh user id, got %q", sid.UserID)
	}
	users, _ := f.store.Users(context.Background())
	if len(users) != 4 {
		t.Fatalf("expected 4 users, got %d", len(users))
	}
}
