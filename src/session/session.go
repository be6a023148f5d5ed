// Package session tracks in-flight orchestration sessions. Each multi-model
// request registers a session on entry and removes it on every exit path, so
// the service can report what is currently running and stream per-session
// progress lines.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Status of a tracked session.
const (
	StatusRouting     = "routing"
	StatusRunning     = "running"
	StatusAggregating = "aggregating"
)

// Session is one in-flight orchestrated request.
type Session struct {
	ID        string
	AgentID   string
	Prompt    string
	Status    string
	StartedAt time.Time
}

// Store holds active sessions. All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Begin registers a new session and returns its id.
func (s *Store) Begin(agentID, prompt string) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &Session{
		ID:        id,
		AgentID:   agentID,
		Prompt:    prompt,
		Status:    StatusRouting,
		StartedAt: time.Now(),
	}
	s.mu.Unlock()
	return id
}

// SetStatus updates the status of a live session. Unknown ids are ignored.
func (s *Store) SetStatus(id, status string) {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		sess.Status = status
	}
	s.mu.Unlock()
}

// End removes the session. It is safe to call more than once.
func (s *Store) End(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Get returns a copy of the session, if it is still live.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Active returns the number of live sessions.
func (s *Store) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Logger returns a zerolog logger scoped to the session, for progress lines
// emitted during routing, subtask execution and aggregation.
func (s *Store) Logger(base zerolog.Logger, id string) zerolog.Logger {
	return base.With().Str("session_id", id).Logger()
}
