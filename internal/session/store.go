package session

import (
	"sync"
	"time"

	"github.com/erauner12/storefront/internal/auth"
	"github.com/google/uuid"
)

// DefaultTTL is the idle lifetime of a browser session
const DefaultTTL = 30 * time.Minute

// PendingLogin is the in-flight authorization-code request of a session
type PendingLogin struct {
	State     string
	Verifier  string
	ReturnTo  string
	CreatedAt time.Time
}

// Session is one browser session of the storefront.
// Tokens is shared between copies; Profile and Pending are replaced, never mutated.
type Session struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"createdAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Tokens    *auth.Manager `json:"-"`
	Profile   *auth.Profile `json:"user,omitempty"`
	Pending   *PendingLogin `json:"-"`
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store keeps browser sessions in memory. Every successful lookup
// extends the session by the store's TTL.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session // key: sessionId
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates an empty store; ttl <= 0 selects DefaultTTL
func NewStore(ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new session owning tokens
func (s *Store) Create(tokens *auth.Manager) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	session := Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Tokens:    tokens,
	}

	s.sessions[session.ID] = session

	// Clean up expired sessions opportunistically
	s.cleanupExpiredLocked(now)

	return session
}

// Get retrieves a live session by ID and extends its expiry
func (s *Store) Get(sessionID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return Session{}, false
	}

	now := s.now().UTC()
	if now.After(session.ExpiresAt) {
		delete(s.sessions, sessionID)
		return Session{}, false
	}

	session.ExpiresAt = now.Add(s.ttl)
	s.sessions[sessionID] = session
	return session, true
}

// Update applies fn to a live session and stores the result
func (s *Store) Update(sessionID string, fn func(*Session)) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists || s.now().UTC().After(session.ExpiresAt) {
		return Session{}, false
	}

	fn(&session)
	session.ID = sessionID
	s.sessions[sessionID] = session
	return session, true
}

// ConsumePending removes and returns the pending login of a session.
// A pending login can be consumed once.
func (s *Store) ConsumePending(sessionID string) (*PendingLogin, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists || session.Pending == nil {
		return nil, false
	}

	pending := session.Pending
	session.Pending = nil
	s.sessions[sessionID] = session
	return pending, true
}

// Delete removes a session
func (s *Store) Delete(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.sessions[sessionID]
	if exists {
		delete(s.sessions, sessionID)
	}

	return exists
}

// Len returns the number of stored sessions, expired ones included
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// cleanupExpiredLocked removes expired sessions (caller must hold write lock)
func (s *Store) cleanupExpiredLocked(now time.Time) {
	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}
