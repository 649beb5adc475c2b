package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/digkill/PresetStore/internal/models"
)

// Session is one logged-in actor. Admin sessions carry a synthesized user that has no
// store record.
type Session struct {
	Token        string
	User         *models.User
	LastPurchase *models.Transaction
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.User.IsAdmin()
}

type SessionManager struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*Session
}

func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func (m *SessionManager) Create(user *models.User) *Session {
	now := m.now()
	session := &Session{
		Token:     uuid.NewString(),
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	m.mu.Lock()
	m.sweepLocked(now)
	m.sessions[session.Token] = session
	m.mu.Unlock()
	return session.clone()
}

// sweepLocked drops every expired session. Callers hold m.mu.
func (m *SessionManager) sweepLocked(now time.Time) {
	for token, session := range m.sessions {
		if now.After(session.ExpiresAt) {
			delete(m.sessions, token)
		}
	}
}

// Len reports how many sessions are held, expired ones included until the next sweep.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Get returns a copy of the session so callers never race with RefreshUser.
func (m *SessionManager) Get(token string) (*Session, bool) {
	m.mu.RLock()
	session, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.now().After(session.ExpiresAt) {
		m.Delete(token)
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return session.clone(), true
}

func (m *SessionManager) Delete(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// RefreshUser replaces the cached user of every session logged in as user.Username.
func (m *SessionManager) RefreshUser(user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, session := range m.sessions {
		if session.User != nil && !session.User.IsAdmin() && session.User.Username == user.Username {
			cp := *user
			session.User = &cp
		}
	}
}

func (m *SessionManager) SetLastPurchase(token string, trx *models.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[token]; ok {
		session.LastPurchase = trx
	}
}

func (m *SessionManager) ClearLastPurchase(token string) {
	m.SetLastPurchase(token, nil)
}

func (s *Session) clone() *Session {
	cp := *s
	if s.User != nil {
		u := *s.User
		cp.User = &u
	}
	return &cp
}
