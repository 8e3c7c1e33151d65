package middleware

import "github.com/aretw0/lendflow/pkg/ports"

// Middleware allows wrapping a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore

// LogMiddleware allows wrapping a ConversationLog to add behavior.
type LogMiddleware func(ports.ConversationLog) ports.ConversationLog

// Chain applies middlewares so the first one listed is the outermost.
func Chain(store ports.SessionStore, mws ...Middleware) ports.SessionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
