// Package store holds the support requests, their message threads and the
// user directory the admin dashboard cross-references.
package store

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/psds-microservice/work-buddy/internal/errs"
	"github.com/psds-microservice/work-buddy/internal/idgen"
	"github.com/psds-microservice/work-buddy/internal/model"
)

// Store is implemented by the in-memory and the postgres backends.
type Store interface {
	List(ctx context.Context) ([]model.Request, error)
	Get(ctx context.Context, id string) (model.Request, error)
	Create(ctx context.Context, in NewRequest) (model.Request, error)
	SetStatus(ctx context.Context, id string, status model.RequestStatus) (model.Request, error)
	AppendMessage(ctx context.Context, id, text string, sender model.Role) (model.Message, error)
	MarkRead(ctx context.Context, id string, reader model.Role) error

	Users(ctx context.Context) ([]model.User, error)
	UserByEmail(ctx context.Context, email string) (model.User, error)
	EnsureUser(ctx context.Context, email string) (model.User, error)
}

type NewRequest struct {
	UserID      string
	Title       string
	Description string
	Priority    model.Priority
}

// Options carries the injected id generators and clock.
type Options struct {
	RequestIDs idgen.Generator
	MessageIDs idgen.Generator
	UserIDs    idgen.Generator
	Now        func() time.Time
}

func (o Options) withDefaults(seed Seed) Options {
	if o.RequestIDs == nil {
		o.RequestIDs = idgen.NewSequence(uint64(len(seed.Requests)))
	}
	if o.MessageIDs == nil {
		n := 0
		for _, r := range seed.Requests {
			n += len(r.Messages)
		}
		o.MessageIDs = idgen.NewSequence(uint64(n))
	}
	if o.UserIDs == nil {
		o.UserIDs = idgen.NewSequence(uint64(len(seed.Users)))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// validateNew trims the fields in place and fills the default priority.
func validateNew(in *NewRequest) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" || in.UserID == "" {
		return errs.ErrEmptyField
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if !in.Priority.Valid() {
		return errs.ErrInvalidPriority
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// nameFromEmail turns "maria.garcia@email.com" into "Maria Garcia".
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	for i, p := range parts {
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r)) + p[size:]
	}
	if len(parts) == 0 {
		return email
	}
	return strings.Join(parts, " ")
}

// countOpen fills OpenRequests from the requests currently in the store.
func countOpen(users []model.User, requests []model.Request) []model.User {
	open := make(map[string]int, len(users))
	for _, r := range requests {
		if r.Status.Open() {
			open[r.UserID]++
		}
	}
	out := make([]model.User, len(users))
	for i, u := range users {
		u.OpenRequests = open[u.ID]
		out[i] = u
	}
	return out
}
