package ports

import (
	"context"

	"github.com/aretw0/lendflow/pkg/domain"
)

// SessionStore defines the interface for persisting conversation sessions.
// Sessions survive process restarts and abandoned connections.
type SessionStore interface {
	// Save persists the session under its ID.
	Save(ctx context.Context, sessionID string, session *domain.Session) error

	// Load retrieves the session for a given ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session for a given ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}

// ConversationLog is an append-only record of what was said in a session.
type ConversationLog interface {
	// Append adds one line to the session's log.
	Append(ctx context.Context, sessionID string, entry domain.LogEntry) error

	// History returns the session's log in the order it was appended.
	History(ctx context.Context, sessionID string) ([]domain.LogEntry, error)
}
