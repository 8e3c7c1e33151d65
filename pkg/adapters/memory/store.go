package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/lendflow/pkg/domain"
)

// Store implements ports.SessionStore and ports.ConversationLog in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Session
	log  map[string][]domain.LogEntry
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Session),
		log:  make(map[string][]domain.LogEntry),
	}
}

// Save persists the session in memory.
func (s *Store) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := session.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load retrieves the session from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	// Copy on read so callers can't mutate store state by pointer
	return session.Clone(), nil
}

// Delete removes the session. Its conversation log is kept.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns stored session IDs in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	slices.Sort(sessions)
	return sessions, nil
}

// Append adds a line to the session's conversation log.
func (s *Store) Append(ctx context.Context, sessionID string, entry domain.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log[sessionID] = append(s.log[sessionID], entry)
	return nil
}

// History returns a copy of the session's conversation log.
func (s *Store) History(ctx context.Context, sessionID string) ([]domain.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.log[sessionID]), nil
}
