package middleware_test

import (
	"context"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]*domain.Session
	log  map[string][]domain.LogEntry
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Session),
		log:  make(map[string][]domain.LogEntry),
	}
}

func (s *MockStore) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	s.data[sessionID] = session
	return nil
}

func (s *MockStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *MockStore) Delete(ctx context.Context, sessionID string) error {
	delete(s.data, sessionID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *MockStore) Append(ctx context.Context, sessionID string, entry domain.LogEntry) error {
	s.log[sessionID] = append(s.log[sessionID], entry)
	return nil
}

func (s *MockStore) History(ctx context.Context, sessionID string) ([]domain.LogEntry, error) {
	return s.log[sessionID], nil
}

var (
	_ ports.SessionStore    = (*MockStore)(nil)
	_ ports.ConversationLog = (*MockStore)(nil)
)
