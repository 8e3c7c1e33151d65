package runner

import (
	"context"
	"strings"
	"sync"

	"github.com/aretw0/lendflow/pkg/domain"
)

// fakeConversation echoes turns and ends the session on "bye".
type fakeConversation struct {
	mu        sync.Mutex
	started   []string
	sent      []string
	uploads   []domain.DocumentType
	abandoned []string
	ended     bool
}

func (f *fakeConversation) Start(_ context.Context, customer string) (domain.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, customer)
	return domain.Reply{SessionID: "s1", Text: "Welcome " + customer, Stage: domain.StageGreeting}, nil
}

func (f *fakeConversation) Send(_ context.Context, id, text string) (domain.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ended {
		return domain.Reply{}, domain.ErrSessionEnded
	}
	f.sent = append(f.sent, text)
	reply := domain.Reply{SessionID: id, Text: "echo: " + text}
	if text == "bye" {
		f.ended = true
		reply.ShouldEnd = true
	}
	return reply, nil
}

func (f *fakeConversation) Upload(_ context.Context, id string, docType domain.DocumentType, _ string, content []byte) (domain.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := domain.SpecFor(docType); !ok {
		return domain.UploadResult{}, domain.ErrUnknownDocument
	}
	f.uploads = append(f.uploads, docType)
	return domain.UploadResult{SessionID: id, Document: docType, Message: strings.ToUpper(string(content))}, nil
}

func (f *fakeConversation) Abandon(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ended {
		f.abandoned = append(f.abandoned, id)
	}
	return nil
}
