package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lendflow/pkg/domain"
)

func runChat(t *testing.T, conv Conversation, input string, opts ...Option) (string, string) {
	t.Helper()
	out := &bytes.Buffer{}
	r := NewRunner(append([]Option{WithIO(strings.NewReader(input), out), WithHeadless(true)}, opts...)...)

	done := make(chan struct{})
	var (
		id  string
		err error
	)
	go func() {
		defer close(done)
		id, err = r.Run(t.Context(), conv)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Runner timed out")
	}
	if err != nil {
		t.Fatalf("Runner failed: %v", err)
	}
	return id, out.String()
}

func TestRunner_Run_UntilShouldEnd(t *testing.T) {
	conv := &fakeConversation{}
	id, out := runChat(t, conv, "hello\n\nbye\nignored\n", WithCustomer("cust_001"))

	if id != "s1" {
		t.Errorf("Expected session s1, got %q", id)
	}
	for _, want := range []string{"Welcome cust_001", "echo: hello", "echo: bye"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got %q", want, out)
		}
	}
	if got := strings.Join(conv.sent, ","); got != "hello,bye" {
		t.Errorf("Expected turns hello,bye, got %s", got)
	}
	if len(conv.abandoned) != 0 {
		t.Errorf("Finished session must not be abandoned: %v", conv.abandoned)
	}
}

func TestRunner_Run_LeavingAbandons(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"exit", "hi\nexit\nnever\n"},
		{"quit", "quit\n"},
		{"EOF", "hi\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConversation{}
			runChat(t, conv, tt.input)
			if len(conv.abandoned) != 1 || conv.abandoned[0] != "s1" {
				t.Errorf("Expected s1 abandoned, got %v", conv.abandoned)
			}
			for _, s := range conv.sent {
				if s == "never" || s == "exit" || s == "quit" {
					t.Errorf("Unexpected turn %q", s)
				}
			}
		})
	}
}

func TestRunner_Run_Commands(t *testing.T) {
	conv := &fakeConversation{}
	files := map[string]string{"docs/card.png": "pan data"}
	readFile := func(path string) ([]byte, error) {
		if s, ok := files[path]; ok {
			return []byte(s), nil
		}
		return nil, errors.New("no such file")
	}

	input := "/upload pan docs/card.png\n/upload passport docs/card.png\n/upload pan missing.pdf\n/upload\n/help\n/unknown\nbye\n"
	_, out := runChat(t, conv, input, WithReadFile(readFile))

	for _, want := range []string{"PAN DATA", "unknown document type", "Cannot read missing.pdf", "Usage: /upload", "Commands:", "echo: /unknown"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got %q", want, out)
		}
	}
	if len(conv.uploads) != 1 || conv.uploads[0] != domain.DocumentPAN {
		t.Errorf("Expected one PAN upload, got %v", conv.uploads)
	}
}

func TestRunner_Run_CustomCommandFirst(t *testing.T) {
	conv := &fakeConversation{}
	var seen []string
	custom := func(_ context.Context, id, line string) (bool, error) {
		seen = append(seen, id+":"+line)
		return line == "/help", nil
	}
	_, out := runChat(t, conv, "/help\nbye\n", WithCommands(custom))

	if strings.Contains(out, "Commands:") {
		t.Error("Custom command should shadow the built-in /help")
	}
	if len(seen) != 1 || seen[0] != "s1:/help" {
		t.Errorf("Unexpected command calls: %v", seen)
	}
}

func TestRunner_Run_Resume(t *testing.T) {
	conv := &fakeConversation{}
	id, out := runChat(t, conv, "bye\n", WithSessionID("s9"))

	if id != "s9" {
		t.Errorf("Expected s9, got %q", id)
	}
	if len(conv.started) != 0 {
		t.Error("Resume must not start a new session")
	}
	if !strings.Contains(out, "Resuming session s9") {
		t.Errorf("Missing resume notice: %q", out)
	}
}

func TestRunner_Run_CancelAbandons(t *testing.T) {
	conv := &fakeConversation{}
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(t.Context())
	r := NewRunner(WithIO(pr, io.Discard), WithHeadless(true))

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(ctx, conv)
		done <- err
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Expected clean exit, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Runner did not stop on cancellation")
	}
	if len(conv.abandoned) != 1 {
		t.Errorf("Expected abandoned session, got %v", conv.abandoned)
	}
}

func TestRunner_Run_JSONHandler(t *testing.T) {
	conv := &fakeConversation{}
	out := &bytes.Buffer{}
	in := strings.NewReader("\"hello\"\n/upload pan card.pdf\nbye\n")
	r := NewRunner(
		WithInputHandler(NewJSONHandler(in, out)),
		WithReadFile(func(string) ([]byte, error) { return []byte("x"), nil }),
	)

	if _, err := r.Run(t.Context(), conv); err != nil {
		t.Fatalf("Runner failed: %v", err)
	}

	var types []string
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("Invalid JSON line %q: %v", sc.Text(), err)
		}
		types = append(types, ev.Type)
	}
	if got := strings.Join(types, ","); got != "reply,reply,upload,reply" {
		t.Errorf("Unexpected event sequence %s", got)
	}
}
