package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/pkg/domain"
)

// Runner handles the chat loop over a Conversation using the provided IO.
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler over Input/Output is used.
	Handler IOHandler

	// Commands run before built-in commands on every line.
	Commands []Command

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// SessionID resumes a session. Empty starts a new one for Customer.
	SessionID string
	Customer  string

	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
	ReadFile func(string) ([]byte, error)
}

// NewRunner creates a Runner with default Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:    os.Stdin,
		Output:   os.Stdout,
		ReadFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Run chats until the conversation ends, input runs out, the customer
// exits or the process is interrupted. It returns the session ID.
// Leaving an unfinished conversation abandons it.
func (r *Runner) Run(ctx context.Context, conv Conversation) (string, error) {
	handler := r.resolveHandler()
	commands := MultiCommand(append(r.Commands,
		UploadCommand(conv, handler, r.ReadFile),
		HelpCommand(handler),
	)...)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	id := r.SessionID
	if id == "" {
		welcome, err := conv.Start(ctx, r.Customer)
		if err != nil {
			return "", fmt.Errorf("failed to start session: %w", err)
		}
		id = welcome.SessionID
		if err := handler.Output(ctx, welcome); err != nil {
			return id, fmt.Errorf("output error: %w", err)
		}
	} else if err := handler.SystemOutput(ctx, "Resuming session "+id); err != nil {
		return id, fmt.Errorf("output error: %w", err)
	}
	r.Logger.Debug("Chat started", "session_id", id)

	for {
		line, err := handler.Input(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				r.Logger.Debug("Chat input closed", "session_id", id, "err", err)
				return id, r.leave(ctx, conv, id)
			}
			return id, fmt.Errorf("input error: %w", err)
		}
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return id, r.leave(ctx, conv, id)
		}

		if strings.HasPrefix(line, "/") {
			handled, err := commands(ctx, id, line)
			if err != nil {
				return id, err
			}
			if handled {
				continue
			}
		}

		reply, err := conv.Send(ctx, id, line)
		switch {
		case errors.Is(err, domain.ErrSessionEnded):
			return id, nil
		case errors.Is(err, domain.ErrUnroutable):
			// The turn is lost but the session keeps its last committed stage.
			r.Logger.Warn("Turn failed", "session_id", id, "err", err)
			if err := handler.SystemOutput(ctx, "Sorry, something went wrong. Please try again."); err != nil {
				return id, err
			}
			continue
		case err != nil:
			return id, fmt.Errorf("turn failed: %w", err)
		}

		if err := handler.Output(ctx, reply); err != nil {
			return id, fmt.Errorf("output error: %w", err)
		}
		if reply.ShouldEnd {
			return id, nil
		}
	}
}

// leave abandons the session. It runs detached from ctx, which may already
// be cancelled by the interrupt that caused it.
func (r *Runner) leave(ctx context.Context, conv Conversation, id string) error {
	err := conv.Abandon(context.WithoutCancel(ctx), id)
	if errors.Is(err, domain.ErrSessionEnded) || errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	return err
}

func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	th := NewTextHandler(r.Input, r.Output, WithTextHandlerRenderer(r.Renderer))
	if !r.Headless && r.Output != nil {
		fmt.Fprintln(r.Output, "Type /help for commands, exit to leave.")
	}
	// Memoize to prevent creating new pumps on subsequent Run calls.
	r.Handler = th
	return th
}
