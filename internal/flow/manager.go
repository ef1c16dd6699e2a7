package flow

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/onevent/flowscore/internal/catalog"
	"github.com/onevent/flowscore/internal/model"
)

// DefaultTTL is how long an idle session survives before it expires.
const DefaultTTL = 2 * time.Hour

// Manager owns the live sessions. All session access goes through it so
// mutation stays behind one lock; callers only ever see snapshots.
type Manager struct {
	cat *catalog.Catalog
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager over the given catalog. A ttl of
// zero uses DefaultTTL.
func NewManager(cat *catalog.Catalog, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		cat:      cat,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Start creates a new session and returns its snapshot.
func (m *Manager) Start(token, lang string) (Session, error) {
	id, err := newSessionID()
	if err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s := newSession(id, token, lang, m.cat, m.now())
	m.sessions[id] = s
	return snapshot(s), nil
}

// Get returns a snapshot of a live session.
func (m *Manager) Get(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(id)
	if err != nil {
		return Session{}, err
	}
	return snapshot(s), nil
}

// Answer validates and stores an answer on the session and applies the
// question's skip rules.
func (m *Manager) Answer(id, questionID string, v model.Value, helperUsed bool) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(id)
	if err != nil {
		return Session{}, err
	}
	if err := s.saveAnswer(m.cat, questionID, v, helperUsed, m.now()); err != nil {
		return Session{}, err
	}
	return snapshot(s), nil
}

// Advance moves the session to the next question, or marks it complete when
// the last question is passed.
func (m *Manager) Advance(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(id)
	if err != nil {
		return Session{}, err
	}
	s.advance(m.now())
	return snapshot(s), nil
}

// Retreat moves the session back one question.
func (m *Manager) Retreat(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(id)
	if err != nil {
		return Session{}, err
	}
	s.retreat(m.now())
	return snapshot(s), nil
}

// Finalize seals a complete session with the respondent's contact details
// and returns the final snapshot. The session stays resident until Remove.
func (m *Manager) Finalize(id string, contact model.Contact) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(id)
	if err != nil {
		return Session{}, err
	}
	if err := s.finalize(contact, m.now()); err != nil {
		return Session{}, err
	}
	return snapshot(s), nil
}

// Remove drops a session. Removing an unknown ID is a no-op.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// lookup finds a session and expires it if idle past the TTL.
// Callers must hold m.mu.
func (m *Manager) lookup(id string) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.now().Sub(s.UpdatedAt) > m.ttl {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	return s, nil
}

func snapshot(s *Session) Session {
	out := *s
	out.Order = append([]string(nil), s.Order...)
	out.Answers = make(map[string]model.Answer, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	return out
}

func newSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
