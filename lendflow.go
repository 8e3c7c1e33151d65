package lendflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lendflow/internal/adapters/crm"
	"github.com/aretw0/lendflow/internal/flow"
	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/pkg/adapters/memory"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/aretw0/lendflow/pkg/session"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Assistant is the embeddable entry point: it owns session lifecycles and
// runs each turn through the conversation state machine under the session lock.
type Assistant struct {
	sessions  *session.Manager
	machine   *flow.Machine
	log       ports.ConversationLog
	directory ports.CustomerDirectory
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	store       ports.SessionStore
	managerOpts []session.Option
	flowOpts    []flow.Option

	mu        sync.RWMutex
	listeners []func(*domain.SessionDiff)
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithStore sets where sessions are persisted. Defaults to memory.
func WithStore(store ports.SessionStore) Option {
	return func(a *Assistant) { a.store = store }
}

// WithConversationLog mirrors every exchanged line into an append-only log
// that outlives the session. Stores that keep a log themselves are used by default.
func WithConversationLog(log ports.ConversationLog) Option {
	return func(a *Assistant) { a.log = log }
}

// WithLocker enables distributed per-session locking.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(a *Assistant) {
		a.managerOpts = append(a.managerOpts, session.WithLocker(locker), session.WithLockTTL(ttl))
	}
}

// WithDirectory resolves customer keys at Start. Defaults to the built-in demo directory.
func WithDirectory(d ports.CustomerDirectory) Option {
	return func(a *Assistant) { a.directory = d }
}

// WithComposer sets the reply composer.
func WithComposer(c ports.Composer) Option {
	return func(a *Assistant) { a.flowOpts = append(a.flowOpts, flow.WithComposer(c)) }
}

// WithKYC sets the identity check service.
func WithKYC(k ports.KYCService) Option {
	return func(a *Assistant) { a.flowOpts = append(a.flowOpts, flow.WithKYC(k)) }
}

// WithCreditBureau sets the credit score source.
func WithCreditBureau(b ports.CreditBureau) Option {
	return func(a *Assistant) { a.flowOpts = append(a.flowOpts, flow.WithCreditBureau(b)) }
}

// WithDocumentGenerator sets the sanction letter generator.
func WithDocumentGenerator(g ports.DocumentGenerator) Option {
	return func(a *Assistant) { a.flowOpts = append(a.flowOpts, flow.WithDocumentGenerator(g)) }
}

// WithFieldExtractor sets the uploaded document reader.
func WithFieldExtractor(e ports.FieldExtractor) Option {
	return func(a *Assistant) { a.flowOpts = append(a.flowOpts, flow.WithFieldExtractor(e)) }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Assistant) { a.flowOpts = append(a.flowOpts, flow.WithHooks(hooks)) }
}

// WithTracer sets the tracer used for turn and collaborator spans.
func WithTracer(t trace.Tracer) Option {
	return func(a *Assistant) { a.flowOpts = append(a.flowOpts, flow.WithTracer(t)) }
}

// WithBrand sets the assistant and company names.
func WithBrand(assistant, company string) Option {
	return func(a *Assistant) {
		a.flowOpts = append(a.flowOpts, flow.WithBrand(flow.Brand{Assistant: assistant, Company: company}))
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) {
		a.now = now
		a.flowOpts = append(a.flowOpts, flow.WithClock(now))
	}
}

// WithIDs overrides how session IDs are minted.
func WithIDs(next func() string) Option {
	return func(a *Assistant) { a.newID = next }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) { a.logger = logger }
}

// New creates an Assistant.
func New(opts ...Option) *Assistant {
	a := &Assistant{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}
	if a.store == nil {
		a.store = memory.NewStore()
	}
	if l, ok := a.store.(ports.ConversationLog); ok && a.log == nil {
		a.log = l
	}
	if a.directory == nil {
		a.directory = crm.Default()
	}
	a.sessions = session.NewManager(a.store, append(a.managerOpts, session.WithLogger(a.logger))...)
	a.machine = flow.New(append([]flow.Option{flow.WithLogger(a.logger)}, a.flowOpts...)...)
	return a
}

// OnChange registers fn to receive the diff of every committed change.
// fn runs synchronously after the session lock is released.
func (a *Assistant) OnChange(fn func(*domain.SessionDiff)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Resolve turns a customer key (directory id, email, or empty for a guest)
// into a Visitor. Unknown emails become logged-in users outside the directory.
func (a *Assistant) Resolve(ctx context.Context, key string) (session.Visitor, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.EqualFold(key, "guest") {
		return session.Visitor{}, nil
	}
	c, err := a.directory.Lookup(ctx, key)
	switch {
	case err == nil:
		return session.Visitor{Customer: &c}, nil
	case !errors.Is(err, domain.ErrCustomerNotFound):
		return session.Visitor{}, fmt.Errorf("failed to look up customer: %w", err)
	case strings.Contains(key, "@"):
		return session.Visitor{Email: key}, nil
	}
	return session.Visitor{}, nil
}

// Start opens a conversation for a customer key and returns the welcome.
func (a *Assistant) Start(ctx context.Context, customer string) (domain.Reply, error) {
	v, err := a.Resolve(ctx, customer)
	if err != nil {
		return domain.Reply{}, err
	}
	return a.StartVisitor(ctx, v)
}

// StartVisitor opens a conversation for v and returns the welcome.
func (a *Assistant) StartVisitor(ctx context.Context, v session.Visitor) (domain.Reply, error) {
	id := a.newID()
	var reply domain.Reply
	s, err := a.sessions.LoadOrStart(ctx, id, func() *domain.Session {
		s := session.Begin(id, v, a.now())
		reply = a.machine.Welcome(ctx, s)
		return s
	})
	if err != nil {
		return domain.Reply{}, err
	}
	a.logger.Info("Session started", "session_id", id, "user_kind", s.UserKind, "stage", s.Stage)
	a.commit(ctx, nil, s)
	return reply, nil
}

// Send processes one user message.
// Returns domain.ErrSessionEnded once the conversation is over.
func (a *Assistant) Send(ctx context.Context, sessionID, text string) (domain.Reply, error) {
	var (
		reply  domain.Reply
		before *domain.Session
	)
	s, err := a.sessions.Update(ctx, sessionID, func(ctx context.Context, s *domain.Session) error {
		before = s.Clone()
		var err error
		reply, err = a.machine.Turn(ctx, s, text)
		return err
	})
	if err != nil {
		return domain.Reply{}, err
	}
	a.commit(ctx, before, s)
	return reply, nil
}

// Upload submits a document for the session.
func (a *Assistant) Upload(ctx context.Context, sessionID string, docType domain.DocumentType, filename string, content []byte) (domain.UploadResult, error) {
	var (
		result domain.UploadResult
		before *domain.Session
	)
	s, err := a.sessions.Update(ctx, sessionID, func(ctx context.Context, s *domain.Session) error {
		before = s.Clone()
		var err error
		result, err = a.machine.Upload(ctx, s, docType, filename, content)
		return err
	})
	if err != nil {
		return domain.UploadResult{}, err
	}
	a.commit(ctx, before, s)
	return result, nil
}

// Abandon marks an active conversation as abandoned. The session and its log are kept.
func (a *Assistant) Abandon(ctx context.Context, sessionID string) error {
	var before *domain.Session
	s, err := a.sessions.Update(ctx, sessionID, func(_ context.Context, s *domain.Session) error {
		before = s.Clone()
		s.Abandon()
		return nil
	})
	if err != nil {
		return err
	}
	a.logger.Info("Session abandoned", "session_id", sessionID, "stage", s.Stage)
	a.commit(ctx, before, s)
	return nil
}

// Delete abandons the session and removes it from the store.
// The conversation log, if any, is retained.
func (a *Assistant) Delete(ctx context.Context, sessionID string) error {
	if err := a.Abandon(ctx, sessionID); err != nil {
		return err
	}
	return a.sessions.Delete(ctx, sessionID)
}

// Session returns the committed state of a session.
func (a *Assistant) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return a.sessions.Load(ctx, sessionID)
}

// Sessions lists stored session IDs.
func (a *Assistant) Sessions(ctx context.Context) ([]string, error) {
	return a.sessions.List(ctx)
}

// History returns what was said in a session, preferring the durable log.
func (a *Assistant) History(ctx context.Context, sessionID string) ([]domain.LogEntry, error) {
	if a.log != nil {
		return a.log.History(ctx, sessionID)
	}
	s, err := a.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.Log, nil
}

// Welcome renders the welcome for a session that is not persisted.
func (a *Assistant) Welcome(ctx context.Context, s *domain.Session) domain.Reply {
	return a.machine.Welcome(ctx, s)
}

// commit mirrors new log lines and notifies listeners. Failures here never
// undo the committed session.
func (a *Assistant) commit(ctx context.Context, before, after *domain.Session) {
	if a.log != nil {
		seen := 0
		if before != nil {
			seen = len(before.Log)
		}
		for _, entry := range after.Log[min(seen, len(after.Log)):] {
			if err := a.log.Append(ctx, after.ID, entry); err != nil {
				a.logger.Warn("Failed to append conversation log", "session_id", after.ID, "err", err)
				break
			}
		}
	}

	diff := domain.Diff(before, after)
	if diff == nil {
		return
	}
	a.mu.RLock()
	listeners := a.listeners
	a.mu.RUnlock()
	for _, fn := range listeners {
		fn(diff)
	}
}
