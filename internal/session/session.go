// Package session holds per-browser state: the events created during the
// current session and the OAuth token for each provider.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/hray3182/ClassSync/internal/models"
)

// Session is the ephemeral store. Its event list wins over the durable table
// when the two are merged.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
	userID   string
	email    string
	events   []*models.ScheduledEvent
	tokens   map[string]*oauth2.Token
	states   map[string]string
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		lastSeen:  now,
		tokens:    make(map[string]*oauth2.Token),
		states:    make(map[string]string),
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen is when the session was last looked up.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Email is the signed-in account's address, or "" when the provider did not
// report one.
func (s *Session) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

// SetUser binds the session to an account.
func (s *Session) SetUser(id, email string) {
	s.mu.Lock()
	s.userID = id
	s.email = email
	s.mu.Unlock()
}

// AddEvent appends ev, replacing any record with the same id in place.
func (s *Session) AddEvent(ev *models.ScheduledEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := ev.Clone()
	for i, existing := range s.events {
		if existing.EventID == ev.EventID {
			s.events[i] = c
			return
		}
	}
	s.events = append(s.events, c)
}

// Events returns copies in insertion order.
func (s *Session) Events() []*models.ScheduledEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.ScheduledEvent, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Clone()
	}
	return out
}

// UpdateEvent applies patch to the record with eventID and reports whether
// one was found.
func (s *Session) UpdateEvent(eventID string, patch models.EventPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range s.events {
		if ev.EventID == eventID {
			patch.Apply(ev)
			return true
		}
	}
	return false
}

func (s *Session) RemoveEvent(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, ev := range s.events {
		if ev.EventID == eventID {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return true
		}
	}
	return false
}

// Token returns the stored token for provider, or nil.
func (s *Session) Token(provider string) *oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[provider]
}

func (s *Session) SetToken(provider string, tok *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok == nil {
		delete(s.tokens, provider)
		return
	}
	s.tokens[provider] = tok
}

// NewState issues a one-time OAuth state value for provider.
func (s *Session) NewState(provider string) string {
	state := uuid.NewString()
	s.mu.Lock()
	s.states[provider] = state
	s.mu.Unlock()
	return state
}

// CheckState consumes the pending state for provider and reports whether it
// matches.
func (s *Session) CheckState(provider, state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	want, ok := s.states[provider]
	delete(s.states, provider)
	return ok && state != "" && state == want
}

// Manager keys sessions by an opaque random id carried in a cookie.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session), now: time.Now}
}

// Create starts a new session with a fresh uuid.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString(), m.now())
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.touch(m.now())
	}
	return s, ok
}

// GetOrCreate returns the session for id, or a new one when id is unknown.
// The bool is true when a session was created.
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	if s, ok := m.Get(id); ok {
		return s, false
	}
	return m.Create(), true
}

func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Expire drops sessions not looked up within idle and returns how many were
// removed.
func (m *Manager) Expire(idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
