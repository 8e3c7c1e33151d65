package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lendflow/pkg/adapters/redis"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return redis.NewFromClient(client, opts...), mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newStore(t)
	ports.RunSessionStoreContract(t, store)
	ports.RunConversationLogContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	store, mr := newStore(t, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	sessionID := "session-ttl"

	err := store.Save(ctx, sessionID, domain.NewSession(sessionID, domain.StageGreeting, time.Now()))
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, sessionID, domain.LogEntry{Speaker: domain.SpeakerUser, Text: "hi"}))

	sessions, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, sessions, sessionID)

	// Key expiration happens in miniredis time.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, sessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	history, err := store.History(ctx, sessionID)
	assert.NoError(t, err)
	assert.Empty(t, history)

	// Index pruning compares against the wall clock.
	time.Sleep(1200 * time.Millisecond)

	sessions, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRedisStore_Prefix(t *testing.T) {
	store, mr := newStore(t, redis.WithPrefix("custom:app:"))
	ctx := context.Background()
	sessionID := "my-session"

	err := store.Save(ctx, sessionID, domain.NewSession(sessionID, domain.StageOnboarding, time.Now()))
	assert.NoError(t, err)
	require.NoError(t, store.Append(ctx, sessionID, domain.LogEntry{Speaker: domain.SpeakerAssistant, Text: "What's your name?"}))

	assert.True(t, mr.Exists("custom:app:my-session"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:log:my-session"), "Expected log with custom prefix to exist")

	list, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, list, sessionID)
}

func TestRedisStore_DeleteKeepsLog(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", domain.NewSession("s1", domain.StageGreeting, time.Now())))
	require.NoError(t, store.Append(ctx, "s1", domain.LogEntry{Speaker: domain.SpeakerUser, Text: "hello"}))
	require.NoError(t, store.Delete(ctx, "s1"))

	assert.False(t, mr.Exists(redis.DefaultPrefix+"s1"))
	history, err := store.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].Text)
}
