package store

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/psds-microservice/work-buddy/internal/errs"
	"github.com/psds-microservice/work-buddy/internal/model"
)

type snapshot struct {
	requests []model.Request
	users    []model.User
}

// Memory keeps the whole desk in process memory. Every mutation builds a new
// snapshot and swaps it in, so readers never see a half-updated request.
type Memory struct {
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]
	opts Options
}

func NewMemory(seed Seed, opts Options) *Memory {
	m := &Memory{opts: opts.withDefaults(seed)}
	requests := make([]model.Request, len(seed.Requests))
	for i, r := range seed.Requests {
		requests[i] = r.Clone()
	}
	m.snap.Store(&snapshot{
		requests: requests,
		users:    append([]model.User(nil), seed.Users...),
	})
	return m
}

func (m *Memory) load() *snapshot {
	return m.snap.Load()
}

// update runs fn under the writer lock against the current snapshot and
// publishes whatever fn returns.
func (m *Memory) update(fn func(cur *snapshot) (*snapshot, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := fn(m.load())
	if err != nil {
		return err
	}
	m.snap.Store(next)
	return nil
}

func (m *Memory) List(_ context.Context) ([]model.Request, error) {
	cur := m.load()
	out := make([]model.Request, len(cur.requests))
	for i, r := range cur.requests {
		out[i] = r.Clone()
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, id string) (model.Request, error) {
	r, ok := Find(m.load().requests, id)
	if !ok {
		return model.Request{}, errs.ErrRequestNotFound
	}
	return r.Clone(), nil
}

func (m *Memory) Create(_ context.Context, in NewRequest) (model.Request, error) {
	if err := validateNew(&in); err != nil {
		return model.Request{}, err
	}
	now := m.opts.Now()
	req := model.Request{
		ID:          m.opts.RequestIDs.NewID(),
		UserID:      in.UserID,
		Title:       in.Title,
		Description: in.Description,
		Status:      model.RequestStatusPending,
		Priority:    in.Priority,
		CreatedAt:   now,
		Messages: []model.Message{{
			ID:        m.opts.MessageIDs.NewID(),
			Text:      in.Description,
			Sender:    model.RoleUser,
			Timestamp: now,
			Status:    model.DeliverySent,
		}},
	}
	req.Messages[0].RequestID = req.ID
	err := m.update(func(cur *snapshot) (*snapshot, error) {
		requests := make([]model.Request, 0, len(cur.requests)+1)
		requests = append(requests, req)
		requests = append(requests, cur.requests...)
		return &snapshot{requests: requests, users: cur.users}, nil
	})
	if err != nil {
		return model.Request{}, err
	}
	return req.Clone(), nil
}

// replace maps fn over the requests and swaps in the result. fn is applied
// to the request with the matching id only.
func (m *Memory) replace(id string, fn func(r model.Request) model.Request) (model.Request, error) {
	var updated model.Request
	err := m.update(func(cur *snapshot) (*snapshot, error) {
		found := false
		requests := make([]model.Request, len(cur.requests))
		for i, r := range cur.requests {
			if r.ID == id {
				r = fn(r.Clone())
				updated = r
				found = true
			}
			requests[i] = r
		}
		if !found {
			return nil, errs.ErrRequestNotFound
		}
		return &snapshot{requests: requests, users: cur.users}, nil
	})
	if err != nil {
		return model.Request{}, err
	}
	return updated.Clone(), nil
}

func (m *Memory) SetStatus(_ context.Context, id string, status model.RequestStatus) (model.Request, error) {
	if !status.Valid() {
		return model.Request{}, errs.ErrInvalidStatus
	}
	return m.replace(id, func(r model.Request) model.Request {
		r.Status = status
		return r
	})
}

func (m *Memory) AppendMessage(_ context.Context, id, text string, sender model.Role) (model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" || !sender.Valid() {
		return model.Message{}, errs.ErrEmptyField
	}
	msg := model.Message{
		RequestID: id,
		Text:      text,
		Sender:    sender,
		Timestamp: m.opts.Now(),
		Status:    model.DeliverySent,
	}
	_, err := m.replace(id, func(r model.Request) model.Request {
		msg.ID = m.opts.MessageIDs.NewID()
		msg.Seq = len(r.Messages)
		r.Messages = append(r.Messages, msg)
		return r
	})
	if err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

func (m *Memory) MarkRead(_ context.Context, id string, reader model.Role) error {
	_, err := m.replace(id, func(r model.Request) model.Request {
		for i, msg := range r.Messages {
			if msg.Sender != reader {
				r.Messages[i].Status = msg.Status.Advance(model.DeliveryRead)
			}
		}
		return r
	})
	return err
}

func (m *Memory) Users(_ context.Context) ([]model.User, error) {
	cur := m.load()
	return countOpen(cur.users, cur.requests), nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (model.User, error) {
	cur := m.load()
	email = normalizeEmail(email)
	for _, u := range countOpen(cur.users, cur.requests) {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, errs.ErrUserNotFound
}

// EnsureUser returns the directory entry for email, registering it first if
// it is unknown.
func (m *Memory) EnsureUser(ctx context.Context, email string) (model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return model.User{}, errs.ErrEmptyField
	}
	var user model.User
	err := m.update(func(cur *snapshot) (*snapshot, error) {
		for _, u := range cur.users {
			if strings.EqualFold(u.Email, email) {
				user = u
				return cur, nil
			}
		}
		user = model.User{
			ID:         m.opts.UserIDs.NewID(),
			Email:      email,
			Name:       nameFromEmail(email),
			LastActive: m.opts.Now(),
		}
		users := append(append([]model.User(nil), cur.users...), user)
		return &snapshot{requests: cur.requests, users: users}, nil
	})
	if err != nil {
		return model.User{}, err
	}
	return m.UserByEmail(ctx, user.Email)
}
