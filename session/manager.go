package session

import (
	"net/http"
	"sync"

	"github.com/google/uuid"

	"fable_ai/story"
)

const cookieName = "fable_session"

// Manager hands each browser its own orchestrator, keyed by a session cookie.
// State never leaks between players.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*story.Orchestrator
	factory  func() *story.Orchestrator
}

// NewManager builds a manager that creates orchestrators with factory.
func NewManager(factory func() *story.Orchestrator) *Manager {
	return &Manager{
		sessions: make(map[string]*story.Orchestrator),
		factory:  factory,
	}
}

// Session returns the orchestrator for the request's session, creating one
// (and setting the cookie) when the request carries none.
func (m *Manager) Session(w http.ResponseWriter, r *http.Request) *story.Orchestrator {
	if c, err := r.Cookie(cookieName); err == nil {
		m.mu.Lock()
		if o, ok := m.sessions[c.Value]; ok {
			m.mu.Unlock()
			return o
		}
		m.mu.Unlock()
	}

	id := uuid.NewString()
	o := m.factory()
	m.mu.Lock()
	m.sessions[id] = o
	m.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return o
}

// Len reports how many sessions are live.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
