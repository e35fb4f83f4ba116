// Package session replaces the browser's ambient role flag with explicit
// session objects handed to every dashboard handler.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/psds-microservice/work-buddy/internal/model"
)

// ViewState is the per-dashboard UI state: the active selection, the status
// filter and the composer draft.
type ViewState struct {
	ActiveID    string
	Initialized bool
	Filter      string
	Draft       string
	// Notice is an inline message shown once on the next render.
	Notice string
}

type Session struct {
	Token     string
	Role      model.Role
	Email     string
	UserID    string
	CreatedAt time.Time

	// lastSeen is unix nanoseconds of the last lookup.
	lastSeen atomic.Int64

	mu   sync.Mutex
	view ViewState
}

// View returns a copy of the current view state.
func (s *Session) View() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// UpdateView runs fn with exclusive access to the view state.
func (s *Session) UpdateView(fn func(v *ViewState)) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.view)
	return s.view
}

// Allows reports whether s grants access to a view that needs role.
// A nil session grants nothing.
func Allows(s *Session, role model.Role) bool {
	return s != nil && s.Role == role
}

type Identity struct {
	Role   model.Role
	Email  string
	UserID string
}

// DefaultIdleTTL is how long an unused session survives.
const DefaultIdleTTL = 12 * time.Hour

// Manager keeps the live sessions in memory, keyed by an opaque token.
// Sessions unused for longer than the idle TTL are dropped on lookup and by
// Sweep. A zero TTL keeps sessions until logout.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	idleTTL  time.Duration
	now      func() time.Time
}

type Option func(*Manager)

func WithIdleTTL(d time.Duration) Option {
	return func(m *Manager) { m.idleTTL = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{sessions: make(map[string]*Session), idleTTL: DefaultIdleTTL, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) Create(id Identity) *Session {
	now := m.now()
	s := &Session{
		Token:     uuid.NewString(),
		Role:      id.Role,
		Email:     id.Email,
		UserID:    id.UserID,
		CreatedAt: now,
		view:      ViewState{Filter: model.StatusAll},
	}
	s.lastSeen.Store(now.UnixNano())
	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	return m.idleTTL > 0 && now.Sub(time.Unix(0, s.lastSeen.Load())) > m.idleTTL
}

// Get returns the live session for token and refreshes its idle timer.
func (m *Manager) Get(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	now := m.now()
	if m.expired(s, now) {
		m.Delete(token)
		return nil, false
	}
	s.lastSeen.Store(now.UnixNano())
	return s, true
}

// Delete ends the session, dropping its role and email.
func (m *Manager) Delete(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Sweep drops every idle session and reports how many went.
func (m *Manager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for token, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	if m.idleTTL <= 0 || interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep()
		}
	}
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
