package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

type Manager struct {
	sessions map[string]*Session
	mu       sync.Mutex
	now      func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (m *Manager) CreateSession(userID string, duration time.Duration) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
	}
	if duration > 0 {
		session.ExpiresAt = now.Add(duration)
	}
	m.sessions[session.ID] = session
	return session
}

// GetSession returns a live session; expired sessions are reported missing.
func (m *Manager) GetSession(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[sessionID]
	if !exists || session.Expired(m.now()) {
		return nil, false
	}
	return session, true
}

// Touch extends a live session by duration.
func (m *Manager) Touch(sessionID string, duration time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[sessionID]
	if !exists || session.Expired(m.now()) {
		return false
	}
	if duration > 0 {
		session.ExpiresAt = m.now().Add(duration)
	}
	return true
}

func (m *Manager) DeleteSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
}

// CleanupExpiredSessions drops expired sessions and returns their ids.
func (m *Manager) CleanupExpiredSessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var removed []string
	for id, session := range m.sessions {
		if session.Expired(now) {
			delete(m.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
