package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		// 1. Create a session
		session := domain.NewSession(sessionID, domain.StageGreeting, time.Now())
		session.Profile.Name = "Rahul Sharma"
		session.Profile.PreApprovedLimit = decimal.NewFromInt(500000)
		session.SetAmount(decimal.NewFromInt(300000), domain.PurposeCar)
		session.AppendLog(domain.SpeakerUser, "3 lakhs for a car", time.Now())

		// 2. Save
		err := store.Save(ctx, sessionID, session)
		require.NoError(t, err, "Save should not return error")

		// 3. Load
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.Stage, loaded.Stage)
		assert.Equal(t, "Rahul Sharma", loaded.Profile.Name)
		assert.True(t, loaded.Profile.PreApprovedLimit.Equal(decimal.NewFromInt(500000)))
		require.NotNil(t, loaded.Loan)
		assert.True(t, loaded.Loan.Amount.Equal(decimal.NewFromInt(300000)))
		require.Len(t, loaded.Log, 1)
		assert.Equal(t, "3 lakhs for a car", loaded.Log[0].Text)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		// Setup
		err := store.Save(ctx, sessionID, domain.NewSession(sessionID, domain.StageGreeting, time.Now()))
		require.NoError(t, err)

		// Delete
		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		// Verify gone
		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		// Setup: Create 2 sessions
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1, domain.StageGreeting, time.Now()))
		_ = store.Save(ctx, id2, domain.NewSession(id2, domain.StageOnboarding, time.Now()))

		// Ensure cleanup
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		// List
		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunConversationLogContract verifies the append-only ordering of a ConversationLog.
func RunConversationLogContract(t *testing.T, log ConversationLog) {
	ctx := context.Background()
	sessionID := "contract-log-" + time.Now().Format("20060102150405")

	t.Run("Empty History", func(t *testing.T) {
		entries, err := log.History(ctx, "never-"+sessionID)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Append Preserves Order", func(t *testing.T) {
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		lines := []domain.LogEntry{
			{Speaker: domain.SpeakerAssistant, Text: "Hi! What's your name?", At: at},
			{Speaker: domain.SpeakerUser, Text: "Priya", At: at.Add(time.Second)},
			{Speaker: domain.SpeakerAssistant, Text: "Nice to meet you, Priya!", At: at.Add(2 * time.Second)},
		}
		for _, l := range lines {
			require.NoError(t, log.Append(ctx, sessionID, l))
		}

		entries, err := log.History(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, entries, len(lines))
		for i := range lines {
			assert.Equal(t, lines[i].Speaker, entries[i].Speaker)
			assert.Equal(t, lines[i].Text, entries[i].Text)
			assert.True(t, lines[i].At.Equal(entries[i].At))
		}
	})
}
