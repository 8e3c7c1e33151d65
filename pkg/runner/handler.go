package runner

import (
	"context"

	"github.com/aretw0/lendflow/pkg/domain"
)

// IOHandler defines the strategy for talking to the customer.
// This allows switching between Text (CLI) and JSON (structured) modes.
type IOHandler interface {
	// Output presents an assistant reply.
	Output(ctx context.Context, reply domain.Reply) error

	// Uploaded acknowledges an accepted document.
	Uploaded(ctx context.Context, result domain.UploadResult) error

	// Input reads the next customer line.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (command feedback, errors).
	// This is distinct from the assistant's replies.
	SystemOutput(ctx context.Context, msg string) error
}

// Conversation is the engine the Runner drives. *lendflow.Assistant satisfies it.
type Conversation interface {
	Start(ctx context.Context, customer string) (domain.Reply, error)
	Send(ctx context.Context, sessionID, text string) (domain.Reply, error)
	Upload(ctx context.Context, sessionID string, docType domain.DocumentType, filename string, content []byte) (domain.UploadResult, error)
	Abandon(ctx context.Context, sessionID string) error
}
