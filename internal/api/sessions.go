package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"smartstudy/internal/memory"
	"smartstudy/internal/services"
)

// Session ties one learner to their study memory and review scheduler.
// Memory is an explicit handle owned here, not module-level state; it is
// discarded with the session.
type Session struct {
	ID        string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`

	Memory    *memory.StudyMemory      `json:"-"`
	Scheduler *services.TopicScheduler `json:"-"`
}

type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
	}
}

// Create opens a new session with a fresh in-memory store.
func (m *SessionManager) Create() (*Session, error) {
	mem, err := memory.New()
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Memory:    mem,
		Scheduler: services.NewTopicScheduler(),
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session, nil
}

func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	return session, ok
}

// Remove ends a session and discards its memory.
func (m *SessionManager) Remove(id string) bool {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		_ = session.Memory.Close()
	}
	return ok
}
