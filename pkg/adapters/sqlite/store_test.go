package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "lendflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	store := newTestStore(t)
	ports.RunSessionStoreContract(t, store)
	ports.RunConversationLogContract(t, store)
}

func TestSQLiteStore_Upsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	s := domain.NewSession("s1", domain.StageGreeting, time.Now())
	require.NoError(t, store.Save(ctx, "s1", s))
	require.NoError(t, s.MoveTo(domain.StageDiscovery, domain.HandlerMaster))
	require.NoError(t, store.Save(ctx, "s1", s))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageDiscovery, loaded.Stage)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestSQLiteStore_ListByStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	active := domain.NewSession("a", domain.StageGreeting, time.Now())
	gone := domain.NewSession("b", domain.StageGreeting, time.Now())
	gone.Abandon()
	require.NoError(t, store.Save(ctx, "a", active))
	require.NoError(t, store.Save(ctx, "b", gone))

	ids, err := store.ListByStatus(ctx, domain.ConversationAbandoned)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestSQLiteStore_LogSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	store, err := New(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "s1", domain.LogEntry{Speaker: domain.SpeakerUser, Text: "5 lakh", At: time.Now()}))
	require.NoError(t, store.Close())

	store, err = New(path)
	require.NoError(t, err)
	defer store.Close()

	history, err := store.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "5 lakh", history[0].Text)
}
