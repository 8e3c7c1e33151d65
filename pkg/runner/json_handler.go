package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/lendflow/pkg/domain"
)

// Event is one JSON line written by the JSONHandler.
type Event struct {
	Type    string               `json:"type"` // reply, upload, system
	Reply   *domain.Reply        `json:"reply,omitempty"`
	Upload  *domain.UploadResult `json:"upload,omitempty"`
	Message string               `json:"message,omitempty"`
}

// JSONHandler implements IOHandler over JSON Lines, for driving the chat
// from another program.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(_ context.Context, reply domain.Reply) error {
	return h.Encoder.Encode(Event{Type: "reply", Reply: &reply})
}

func (h *JSONHandler) Uploaded(_ context.Context, result domain.UploadResult) error {
	return h.Encoder.Encode(Event{Type: "upload", Upload: &result})
}

func (h *JSONHandler) SystemOutput(_ context.Context, msg string) error {
	return h.Encoder.Encode(Event{Type: "system", Message: msg})
}

// Input reads one line: either a JSON string or raw text.
func (h *JSONHandler) Input(_ context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		text = val
	}
	return SanitizeInput(text)
}
