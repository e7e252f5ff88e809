package session

import (
	"context"
	"sync"
)

// MemoryStore is the default Store: a mutex-guarded map keyed by actor.
// Sessions are lost on restart; only uncommitted edits are at risk, committed
// records live in the attendance store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]*Session),
	}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, actorID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[actorID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return s, nil
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ActorID] = s
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, actorID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, actorID)
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
