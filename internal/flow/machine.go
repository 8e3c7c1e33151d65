// Package flow routes a conversation through the loan-intake stages.
//
// A Machine owns no session state. Each call receives the session aggregate,
// mutates it through its methods and returns the reply. Callers serialize
// turns per session (see pkg/session.Manager) and persist the result.
//
// Dispatch is a switch over the closed domain.Handler set. A handler returns
// the stage and handler that own the next turn; when it asks to chain, the
// next handler runs within the same turn, up to a hop limit.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/internal/signal"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxHops bounds how many handlers may run in one turn.
const DefaultMaxHops = 5

// Brand is how the assistant introduces itself.
type Brand struct {
	Assistant string
	Company   string
}

// DefaultBrand is used when no brand is configured.
var DefaultBrand = Brand{Assistant: "Shruti", Company: "NBFC Finance"}

// Machine is the conversation state machine.
type Machine struct {
	composer  ports.Composer
	kyc       ports.KYCService
	bureau    ports.CreditBureau
	generator ports.DocumentGenerator
	extractor ports.FieldExtractor

	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
	loanID  func() string
	brand   Brand
	maxHops int
}

// Option configures a Machine.
type Option func(*Machine)

// WithComposer sets the reply composer. Without one, every reply is the fallback text.
func WithComposer(c ports.Composer) Option {
	return func(m *Machine) { m.composer = c }
}

// WithKYC sets the identity verification service.
func WithKYC(k ports.KYCService) Option {
	return func(m *Machine) { m.kyc = k }
}

// WithCreditBureau sets the credit bureau.
func WithCreditBureau(b ports.CreditBureau) Option {
	return func(m *Machine) { m.bureau = b }
}

// WithDocumentGenerator sets the approval document generator.
func WithDocumentGenerator(g ports.DocumentGenerator) Option {
	return func(m *Machine) { m.generator = g }
}

// WithFieldExtractor sets the uploaded document reader.
func WithFieldExtractor(e ports.FieldExtractor) Option {
	return func(m *Machine) { m.extractor = e }
}

// WithHooks registers lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(m *Machine) { m.hooks = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(m *Machine) { m.tracer = t }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithLoanIDs overrides how loan application IDs are minted.
func WithLoanIDs(next func() string) Option {
	return func(m *Machine) { m.loanID = next }
}

// WithBrand sets the assistant and company names used in fixed texts.
func WithBrand(b Brand) Option {
	return func(m *Machine) {
		if b.Assistant != "" {
			m.brand.Assistant = b.Assistant
		}
		if b.Company != "" {
			m.brand.Company = b.Company
		}
	}
}

// WithMaxHops overrides DefaultMaxHops.
func WithMaxHops(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxHops = n
		}
	}
}

// New creates a Machine.
func New(opts ...Option) *Machine {
	m := &Machine{
		logger:  logging.NewNop(),
		tracer:  otel.Tracer("github.com/aretw0/lendflow/internal/flow"),
		now:     time.Now,
		loanID:  newLoanID,
		brand:   DefaultBrand,
		maxHops: DefaultMaxHops,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func newLoanID() string {
	return "LOAN" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// turn is the input of one handler invocation.
type turn struct {
	session *domain.Session
	text    string
	facts   domain.Facts
}

// outcome is what a handler decides: who owns the next turn and what to say.
type outcome struct {
	stage   domain.Stage
	handler domain.Handler
	text    string
	// chain runs the new handler within the same turn.
	chain bool
	// end closes the conversation.
	end bool
}

func stay(s *domain.Session, text string) outcome {
	return outcome{stage: s.Stage, handler: s.Handler, text: text}
}

type handlerFunc func(context.Context, *turn) outcome

func (m *Machine) handlerFor(h domain.Handler) (handlerFunc, error) {
	switch h {
	case domain.HandlerMaster:
		return m.master, nil
	case domain.HandlerSales:
		return m.sales, nil
	case domain.HandlerVerification:
		return m.verification, nil
	case domain.HandlerDocument:
		return m.document, nil
	case domain.HandlerUnderwriting:
		return m.underwriting, nil
	case domain.HandlerSanction:
		return m.sanction, nil
	case domain.HandlerCompleted:
		return m.completed, nil
	}
	return nil, fmt.Errorf("%w: handler %q", domain.ErrUnroutable, h)
}

// Turn processes one user utterance against s.
//
// An error leaves s unusable for this turn: the caller must not persist it,
// so the last committed stage stays in place. Collaborator failures are not
// errors; they degrade the wording only.
func (m *Machine) Turn(ctx context.Context, s *domain.Session, text string) (domain.Reply, error) {
	if s.ShouldEnd {
		return domain.Reply{}, domain.ErrSessionEnded
	}
	if !s.Stage.Valid() {
		m.logger.Error("Unroutable session", "session_id", s.ID, "stage", s.Stage)
		return domain.Reply{}, fmt.Errorf("%w: stage %q", domain.ErrUnroutable, s.Stage)
	}

	ctx, span := m.tracer.Start(ctx, "flow.Turn", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("stage.from", string(s.Stage)),
	))
	defer span.End()

	t := &turn{session: s, text: text}
	s.AppendLog(domain.SpeakerUser, text, m.now())

	// Onboarding answers are parsed by their own rules, not by extraction.
	if s.Stage != domain.StageOnboarding {
		t.facts = signal.Extract(text)
		if t.facts.HasAmount() && !s.Stage.Terminal() {
			s.SetAmount(*t.facts.Amount, t.facts.Purpose)
			if t.facts.TenureMonths > 0 {
				s.SetTenure(t.facts.TenureMonths)
			}
			if err := m.move(ctx, s, outcome{stage: domain.StageOfferPresentation, handler: domain.HandlerSales}); err != nil {
				return domain.Reply{}, err
			}
		}
	}

	var parts []string
	for hop := 1; ; hop++ {
		handle, err := m.handlerFor(s.Handler)
		if err != nil {
			m.logger.Error("Unroutable session", "session_id", s.ID, "handler", s.Handler)
			span.SetStatus(codes.Error, err.Error())
			return domain.Reply{}, err
		}
		out := handle(ctx, t)
		if out.text != "" {
			parts = append(parts, out.text)
		}
		if err := m.move(ctx, s, out); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return domain.Reply{}, err
		}
		if !out.chain || s.ShouldEnd {
			break
		}
		if hop >= m.maxHops {
			m.logger.Warn("Handler chain cut short", "session_id", s.ID, "handler", s.Handler, "hops", hop)
			break
		}
	}

	reply := strings.Join(parts, "\n\n")
	if reply == "" {
		reply = fmt.Sprintf("I want to make sure I understand, %s.\n\nCould you tell me a bit more about what you're looking for? That'll help me give you better guidance.", s.DisplayName())
	}
	s.AppendLog(domain.SpeakerAssistant, reply, m.now())

	span.SetAttributes(
		attribute.String("stage.to", string(s.Stage)),
		attribute.String("handler", string(s.Handler)),
	)
	m.logger.Debug("Turn processed", "session_id", s.ID, "stage", s.Stage, "handler", s.Handler, "intent", t.facts.Intent)
	return domain.ReplyFor(s, reply), nil
}

// move applies an outcome and fires stage hooks when the stage changes.
func (m *Machine) move(ctx context.Context, s *domain.Session, out outcome) error {
	from := s.Stage
	if out.end {
		s.End()
	} else if err := s.MoveTo(out.stage, out.handler); err != nil {
		return err
	}
	if from == s.Stage {
		return nil
	}
	now := m.now()
	if m.hooks.OnStageLeave != nil {
		m.hooks.OnStageLeave(ctx, &domain.StageEvent{
			EventBase: domain.EventBase{Timestamp: now, Type: domain.EventStageLeave, SessionID: s.ID},
			Stage:     from,
		})
	}
	if m.hooks.OnStageEnter != nil {
		m.hooks.OnStageEnter(ctx, &domain.StageEvent{
			EventBase: domain.EventBase{Timestamp: now, Type: domain.EventStageEnter, SessionID: s.ID},
			Stage:     s.Stage,
			Handler:   s.Handler,
		})
	}
	return nil
}

// ownerOf returns the handler that owns a stage when the session got there
// without one, e.g. a master turn landing on a worker stage.
func ownerOf(stage domain.Stage) domain.Handler {
	switch stage {
	case domain.StageOfferPresentation:
		return domain.HandlerSales
	case domain.StageVerification:
		return domain.HandlerVerification
	case domain.StageDocumentCollection:
		return domain.HandlerDocument
	case domain.StageUnderwriting:
		return domain.HandlerUnderwriting
	case domain.StageSanction:
		return domain.HandlerSanction
	case domain.StageCompleted:
		return domain.HandlerCompleted
	}
	return domain.HandlerMaster
}
