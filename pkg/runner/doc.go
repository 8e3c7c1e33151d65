/*
Package runner drives a lendflow conversation from a terminal or another
program.

The Runner starts (or resumes) a session, then loops: read a line, let the
slash commands consume it, otherwise send it as a turn and present the
reply. The loop ends when the assistant closes the conversation, the input
ends, or the customer types "exit". Leaving before the end, including on
SIGINT/SIGTERM, marks the session abandoned.

# Key Components

  - IOHandler: decouples presentation (TextHandler, JSONHandler).
  - Command: slash-command middleware such as /upload and /help.
  - SanitizeInput: size limit and control-character stripping applied to every line.

# Usage

	r := runner.NewRunner(
		runner.WithCustomer("cust_001"),
		runner.WithRenderer(renderer),
	)
	id, err := r.Run(ctx, assistant)
*/
package runner
