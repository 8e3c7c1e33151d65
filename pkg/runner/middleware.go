package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/lendflow/pkg/domain"
)

// Command intercepts a customer line before it reaches the conversation.
// It returns true when it consumed the line.
type Command func(ctx context.Context, sessionID, line string) (bool, error)

// MultiCommand chains commands; the first one to consume a line wins.
func MultiCommand(commands ...Command) Command {
	return func(ctx context.Context, sessionID, line string) (bool, error) {
		for _, cmd := range commands {
			handled, err := cmd(ctx, sessionID, line)
			if err != nil || handled {
				return handled, err
			}
		}
		return false, nil
	}
}

// UploadCommand handles "/upload <type> <path>". Rejected documents are
// reported through the handler; only infrastructure errors are returned.
func UploadCommand(conv Conversation, handler IOHandler, readFile func(string) ([]byte, error)) Command {
	return func(ctx context.Context, sessionID, line string) (bool, error) {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != "/upload" {
			return false, nil
		}
		if len(fields) != 3 {
			return true, handler.SystemOutput(ctx, "Usage: /upload <aadhaar|pan|salary_slip|bank_statement> <path>")
		}

		docType, path := domain.DocumentType(fields[1]), fields[2]
		content, err := readFile(path)
		if err != nil {
			return true, handler.SystemOutput(ctx, fmt.Sprintf("Cannot read %s: %v", path, err))
		}

		result, err := conv.Upload(ctx, sessionID, docType, filepath.Base(path), content)
		switch {
		case errors.Is(err, domain.ErrUnknownDocument), errors.Is(err, domain.ErrDocumentRejected):
			return true, handler.SystemOutput(ctx, err.Error())
		case err != nil:
			return true, err
		}
		return true, handler.Uploaded(ctx, result)
	}
}

const helpText = `Commands:
  /upload <type> <path>  submit a document (aadhaar, pan, salary_slip, bank_statement)
  /help                  show this help
  exit, quit             leave the conversation`

// HelpCommand handles "/help".
func HelpCommand(handler IOHandler) Command {
	return func(ctx context.Context, _ string, line string) (bool, error) {
		if strings.TrimSpace(line) != "/help" {
			return false, nil
		}
		return true, handler.SystemOutput(ctx, helpText)
	}
}
