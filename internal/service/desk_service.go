package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/psds-microservice/work-buddy/internal/auth"
	"github.com/psds-microservice/work-buddy/internal/errs"
	"github.com/psds-microservice/work-buddy/internal/kafka"
	"github.com/psds-microservice/work-buddy/internal/model"
	"github.com/psds-microservice/work-buddy/internal/searchindex"
	"github.com/psds-microservice/work-buddy/internal/session"
	"github.com/psds-microservice/work-buddy/internal/store"
	"github.com/rs/zerolog"
)

// DeskServicer is what the HTTP handlers depend on.
type DeskServicer interface {
	Dashboard(ctx context.Context, s *session.Session) (Dashboard, error)
	VisibleRequests(ctx context.Context, s *session.Session) ([]model.Request, error)
	Request(ctx context.Context, s *session.Session, id string) (model.Request, error)
	CreateRequest(ctx context.Context, s *session.Session, title, description string) (model.Request, error)
	SetStatus(ctx context.Context, s *session.Session, id string, status model.RequestStatus) (model.Request, error)
	SetFilter(s *session.Session, filter string) error
	Select(ctx context.Context, s *session.Session, id string) error
	Compose(ctx context.Context, s *session.Session, text string) (bool, error)
	Users(ctx context.Context, s *session.Session) ([]model.User, error)
	Stats(ctx context.Context, s *session.Session) (store.Stats, error)
	ResolveIdentity(ctx context.Context, id auth.Identity) (session.Identity, error)
}

type Deps struct {
	Store    store.Store
	Producer kafka.RequestEventProducer
	Search   searchindex.Indexer
	Logger   zerolog.Logger
}

type DeskService struct {
	Deps
}

func NewDeskService(deps Deps) *DeskService {
	return &DeskService{Deps: deps}
}

// Dashboard is everything a dashboard render needs.
type Dashboard struct {
	Role      model.Role      `json:"role"`
	Email     string          `json:"email,omitempty"`
	User      *model.User     `json:"user,omitempty"`
	Requests  []model.Request `json:"requests"`
	Active    *model.Request  `json:"active,omitempty"`
	ActiveFor *model.User     `json:"active_user,omitempty"`
	Filter    string          `json:"filter,omitempty"`
	Draft     string          `json:"draft,omitempty"`
	Notice    string          `json:"notice,omitempty"`
	Stats     *store.Stats    `json:"stats,omitempty"`
	Users     []model.User    `json:"users,omitempty"`
}

// ResolveIdentity turns a successful login into a session identity. Users
// are looked up in the directory and registered when unknown.
func (d *DeskService) ResolveIdentity(ctx context.Context, id auth.Identity) (session.Identity, error) {
	out := session.Identity{Role: id.Role, Email: id.Email}
	if id.Role != model.RoleUser {
		return out, nil
	}
	u, err := d.Store.EnsureUser(ctx, id.Email)
	if err != nil {
		return session.Identity{}, fmt.Errorf("ensure user: %w", err)
	}
	out.UserID = u.ID
	out.Email = u.Email
	return out, nil
}

func requireRole(s *session.Session, role model.Role) error {
	if !session.Allows(s, role) {
		return errs.ErrUnauthorized
	}
	return nil
}

func requireAny(s *session.Session) error {
	if s == nil || !s.Role.Valid() {
		return errs.ErrUnauthorized
	}
	return nil
}

// VisibleRequests is what the session's role may see, unfiltered: the
// user's own requests, or every request for the admin.
func (d *DeskService) VisibleRequests(ctx context.Context, s *session.Session) ([]model.Request, error) {
	if err := requireAny(s); err != nil {
		return nil, err
	}
	all, err := d.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if s.Role == model.RoleAdmin {
		return all, nil
	}
	return store.OwnedBy(all, s.UserID), nil
}

func (d *DeskService) Request(ctx context.Context, s *session.Session, id string) (model.Request, error) {
	visible, err := d.VisibleRequests(ctx, s)
	if err != nil {
		return model.Request{}, err
	}
	r, ok := store.Find(visible, id)
	if !ok {
		return model.Request{}, errs.ErrRequestNotFound
	}
	return r, nil
}

// Dashboard builds the view for the session, initializing the active
// selection to the first visible request on the first call.
func (d *DeskService) Dashboard(ctx context.Context, s *session.Session) (Dashboard, error) {
	visible, err := d.VisibleRequests(ctx, s)
	if err != nil {
		return Dashboard{}, err
	}
	view := s.UpdateView(func(v *session.ViewState) {
		if !v.Initialized {
			v.Initialized = true
			if len(visible) > 0 {
				v.ActiveID = visible[0].ID
			}
		}
	})
	s.UpdateView(func(v *session.ViewState) { v.Notice = "" })

	out := Dashboard{
		Role:     s.Role,
		Email:    s.Email,
		Requests: visible,
		Filter:   view.Filter,
		Draft:    view.Draft,
		Notice:   view.Notice,
	}
	if s.Role == model.RoleAdmin {
		out.Requests = store.FilterByStatus(visible, view.Filter)
	}
	if r, ok := store.Find(visible, view.ActiveID); ok {
		out.Active = &r
	}

	users, err := d.Store.Users(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list users: %w", err)
	}
	if s.Role == model.RoleAdmin {
		stats := store.ComputeStats(visible, users)
		out.Stats = &stats
		out.Users = users
		if out.Active != nil {
			out.ActiveFor = findUser(users, out.Active.UserID)
		}
	} else {
		out.User = findUser(users, s.UserID)
	}
	return out, nil
}

func findUser(users []model.User, id string) *model.User {
	for i := range users {
		if users[i].ID == id {
			u := users[i]
			return &u
		}
	}
	return nil
}

// CreateRequest opens a request for the session's user and makes it the
// active selection.
func (d *DeskService) CreateRequest(ctx context.Context, s *session.Session, title, description string) (model.Request, error) {
	if err := requireRole(s, model.RoleUser); err != nil {
		return model.Request{}, err
	}
	r, err := d.Store.Create(ctx, store.NewRequest{
		UserID:      s.UserID,
		Title:       title,
		Description: description,
	})
	if err != nil {
		return model.Request{}, err
	}
	s.UpdateView(func(v *session.ViewState) {
		v.Initialized = true
		v.ActiveID = r.ID
	})
	d.Logger.Info().Str("request_id", r.ID).Str("user_id", r.UserID).Msg("request created")
	d.publish(kafka.EventRequestCreated, r, nil)
	return r, nil
}

// SetStatus is admin-only. Any status can follow any other.
func (d *DeskService) SetStatus(ctx context.Context, s *session.Session, id string, status model.RequestStatus) (model.Request, error) {
	if err := requireRole(s, model.RoleAdmin); err != nil {
		return model.Request{}, err
	}
	if !status.Valid() {
		return model.Request{}, errs.ErrInvalidStatus
	}
	before, err := d.Store.Get(ctx, id)
	if err != nil {
		return model.Request{}, err
	}
	r, err := d.Store.SetStatus(ctx, id, status)
	if err != nil {
		return model.Request{}, err
	}
	d.Logger.Info().Str("request_id", id).Str("from", string(before.Status)).Str("to", string(status)).Msg("request status changed")
	d.publish(kafka.EventRequestStatusChanged, r, map[string]interface{}{"previous_status": string(before.Status)})
	return r, nil
}

func (d *DeskService) SetFilter(s *session.Session, filter string) error {
	if err := requireRole(s, model.RoleAdmin); err != nil {
		return err
	}
	f, err := store.ParseStatusFilter(filter)
	if err != nil {
		return err
	}
	s.UpdateView(func(v *session.ViewState) { v.Filter = f })
	return nil
}

// Select replaces the active selection. Ids the session cannot see are
// rejected and the selection is left alone. Opening a thread marks the
// other side's messages as read.
func (d *DeskService) Select(ctx context.Context, s *session.Session, id string) error {
	r, err := d.Request(ctx, s, id)
	if err != nil {
		return err
	}
	s.UpdateView(func(v *session.ViewState) {
		v.Initialized = true
		v.ActiveID = r.ID
	})
	if err := d.Store.MarkRead(ctx, r.ID, s.Role); err != nil && !errors.Is(err, errs.ErrRequestNotFound) {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// Compose sends text to the active thread as the session's role. It
// returns false without touching the store when the trimmed text is empty
// or nothing is selected. On success the draft is cleared.
func (d *DeskService) Compose(ctx context.Context, s *session.Session, text string) (bool, error) {
	if err := requireAny(s); err != nil {
		return false, err
	}
	view := s.View()
	if strings.TrimSpace(text) == "" || view.ActiveID == "" {
		s.UpdateView(func(v *session.ViewState) { v.Draft = text })
		return false, nil
	}
	// The user may only write to their own threads.
	if _, err := d.Request(ctx, s, view.ActiveID); err != nil {
		if errors.Is(err, errs.ErrRequestNotFound) {
			return false, nil
		}
		return false, err
	}
	msg, err := d.Store.AppendMessage(ctx, view.ActiveID, text, s.Role)
	if err != nil {
		if errors.Is(err, errs.ErrRequestNotFound) || errors.Is(err, errs.ErrEmptyField) {
			return false, nil
		}
		return false, err
	}
	s.UpdateView(func(v *session.ViewState) { v.Draft = "" })
	d.Logger.Debug().Str("request_id", view.ActiveID).Str("message_id", msg.ID).Str("sender", string(msg.Sender)).Msg("message appended")
	if r, err := d.Store.Get(ctx, view.ActiveID); err == nil {
		d.publish(kafka.EventMessageAppended, r, map[string]interface{}{
			"message_id": msg.ID,
			"sender":     string(msg.Sender),
			"text":       msg.Text,
		})
	}
	return true, nil
}

func (d *DeskService) Users(ctx context.Context, s *session.Session) ([]model.User, error) {
	if err := requireRole(s, model.RoleAdmin); err != nil {
		return nil, err
	}
	return d.Store.Users(ctx)
}

func (d *DeskService) Stats(ctx context.Context, s *session.Session) (store.Stats, error) {
	if err := requireRole(s, model.RoleAdmin); err != nil {
		return store.Stats{}, err
	}
	reqs, err := d.Store.List(ctx)
	if err != nil {
		return store.Stats{}, err
	}
	users, err := d.Store.Users(ctx)
	if err != nil {
		return store.Stats{}, err
	}
	return store.ComputeStats(reqs, users), nil
}

func RequestEventPayload(r model.Request) map[string]interface{} {
	return map[string]interface{}{
		"request_id":    r.ID,
		"user_id":       r.UserID,
		"title":         r.Title,
		"status":        string(r.Status),
		"priority":      string(r.Priority),
		"message_count": len(r.Messages),
	}
}

// publish sends the event and reindexes the request. Both are
// fire-and-forget and must outlive the HTTP request, so they get their own
// context.
func (d *DeskService) publish(event string, r model.Request, extra map[string]interface{}) {
	if d.Search != nil {
		d.Search.IndexRequestAsync(r)
	}
	if d.Producer == nil {
		return
	}
	payload := RequestEventPayload(r)
	for k, v := range extra {
		payload[k] = v
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		d.Producer.ProduceRequestEvent(ctx, event, payload)
	}()
}
