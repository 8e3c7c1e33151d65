package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/lendflow"
	"github.com/aretw0/lendflow/internal/adapters/letter"
	"github.com/aretw0/lendflow/internal/presentation/tui"
	"github.com/aretw0/lendflow/pkg/runner"
)

// ChatOptions configures a terminal chat.
type ChatOptions struct {
	Customer  string
	SessionID string
	JSON      bool
	Headless  bool

	// In and Out default to stdin and stdout.
	In  io.Reader
	Out io.Writer
}

// RunChat chats with the assistant until the conversation ends or the
// customer leaves, and returns the session ID.
func RunChat(ctx context.Context, app *App, opts ChatOptions) (string, error) {
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	quiet := opts.JSON || opts.Headless
	if !quiet {
		company := app.Config.Documents.Company
		if company == "" {
			company = letter.DefaultCompany
		}
		tui.PrintBanner(out, company, lendflow.Version)
	}

	r := runner.NewRunner(createRunnerOptions(app, opts, in, out)...)
	id, err := r.Run(ctx, app.Assistant)
	if err != nil {
		return id, err
	}
	app.Logger.Info("Chat finished", "session_id", id)
	if !quiet {
		printSystemMessage(out, "Session %s saved. Resume with --session %s", id, id)
	}
	return id, nil
}

// createRunnerOptions prepares the functional options for the Runner.
func createRunnerOptions(app *App, opts ChatOptions, in io.Reader, out io.Writer) []runner.Option {
	ro := []runner.Option{
		runner.WithLogger(app.Logger),
		runner.WithHeadless(opts.Headless),
		runner.WithIO(in, out),
		runner.WithSessionID(opts.SessionID),
		runner.WithCustomer(opts.Customer),
	}

	switch {
	case opts.JSON:
		ro = append(ro, runner.WithInputHandler(runner.NewJSONHandler(in, out)))
	case opts.Headless:
	default:
		if f, ok := out.(*os.File); ok && tui.Interactive(f) {
			render, err := tui.NewRenderer(tui.Width(f))
			if err != nil {
				app.Logger.Warn("Markdown rendering disabled", "err", err)
				break
			}
			ro = append(ro, runner.WithRenderer(render))
		}
	}
	return ro
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
