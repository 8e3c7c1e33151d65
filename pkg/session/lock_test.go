package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/lendflow/pkg/domain"
)

// MockStore structure
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	return nil
}
func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return &domain.Session{ID: sessionID}, nil
}
func (m *MockStore) Delete(ctx context.Context, sessionID string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)         { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&MockStore{})
	ctx := context.Background()
	count := 10000

	// 1. Create, update and delete many sessions
	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.Save(ctx, sid, &domain.Session{ID: sid})
		_, _ = mgr.Update(ctx, sid, func(context.Context, *domain.Session) error { return nil })
		_ = mgr.Delete(ctx, sid)
	}

	// 2. Count locks remaining in map
	lockCount := len(mgr.locks)

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
