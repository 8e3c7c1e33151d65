package runner

import (
	"io"
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithIO sets the streams used by the default text handler.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *Runner) {
		r.Input = in
		r.Output = out
	}
}

// WithHeadless suppresses the banner and help hint.
func WithHeadless(headless bool) Option {
	return func(r *Runner) {
		r.Headless = headless
	}
}

// WithSessionID resumes an existing session instead of starting one.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithCustomer sets the customer key used when starting a session.
func WithCustomer(key string) Option {
	return func(r *Runner) {
		r.Customer = key
	}
}

// WithRenderer configures the content renderer (e.g. markdown to ANSI).
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

// WithCommands adds slash commands ahead of the built-in ones.
func WithCommands(commands ...Command) Option {
	return func(r *Runner) {
		r.Commands = append(r.Commands, commands...)
	}
}

// WithReadFile replaces os.ReadFile for /upload.
func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(r *Runner) {
		r.ReadFile = fn
	}
}
