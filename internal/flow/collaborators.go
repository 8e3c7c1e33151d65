package flow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Collaborator names used in hooks, spans and logs.
const (
	collabComposer  = "composer"
	collabKYC       = "kyc"
	collabBureau    = "credit_bureau"
	collabGenerator = "document_generator"
	collabExtractor = "field_extractor"
)

var errNotConfigured = errors.New("collaborator not configured")

// call runs one collaborator invocation inside a span, reporting it to hooks.
// Failures are logged and returned; callers fall back, they never retry.
func (m *Machine) call(ctx context.Context, s *domain.Session, name string, fn func(context.Context) error) error {
	ctx, span := m.tracer.Start(ctx, "collaborator."+name, trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("stage", string(s.Stage)),
	))
	defer span.End()

	event := &domain.CollaboratorEvent{
		EventBase:    domain.EventBase{Timestamp: m.now(), Type: domain.EventCollaboratorCall, SessionID: s.ID},
		Collaborator: name,
		Stage:        s.Stage,
	}
	if m.hooks.OnCollaboratorCall != nil {
		m.hooks.OnCollaboratorCall(ctx, event)
	}

	start := time.Now()
	err := fn(ctx)

	reply := *event
	reply.Type = domain.EventCollaboratorReply
	reply.Timestamp = m.now()
	reply.Duration = time.Since(start)
	reply.IsError = err != nil
	if m.hooks.OnCollaboratorReply != nil {
		m.hooks.OnCollaboratorReply(ctx, &reply)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errors.Is(err, errNotConfigured) {
			m.logger.Warn("Collaborator failed", "session_id", s.ID, "collaborator", name, "err", err)
		}
	}
	return err
}

// say asks the composer for a reply to scenario, falling back to the fixed text.
func (m *Machine) say(ctx context.Context, t *turn, scenario ports.Scenario, fallback string) string {
	if m.composer == nil {
		return fallback
	}
	if scenario.UserMessage == "" {
		scenario.UserMessage = t.text
	}
	if scenario.Facts == nil {
		scenario.Facts = map[string]any{}
	}
	scenario.Facts["customer_name"] = t.session.DisplayName()
	if t.facts.Sentiment != "" {
		scenario.Facts["customer_sentiment"] = string(t.facts.Sentiment)
	}

	var text string
	err := m.call(ctx, t.session, collabComposer, func(ctx context.Context) error {
		var err error
		text, err = m.composer.Compose(ctx, scenario)
		return err
	})
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		return fallback
	}
	return text
}

func (m *Machine) lookupKYC(ctx context.Context, s *domain.Session) (ports.KYCResult, error) {
	var res ports.KYCResult
	err := m.call(ctx, s, collabKYC, func(ctx context.Context) error {
		if m.kyc == nil {
			return errNotConfigured
		}
		var err error
		res, err = m.kyc.LookupKYC(ctx, identityOf(s))
		return err
	})
	return res, err
}

func (m *Machine) lookupCredit(ctx context.Context, s *domain.Session) (ports.CreditReport, error) {
	var report ports.CreditReport
	err := m.call(ctx, s, collabBureau, func(ctx context.Context) error {
		if m.bureau == nil {
			return errNotConfigured
		}
		var err error
		report, err = m.bureau.LookupCreditScore(ctx, ports.CreditQuery{PAN: filedPAN(s), Identity: identityOf(s)})
		if err == nil && !report.Success {
			err = errors.New("bureau returned no score")
		}
		return err
	})
	return report, err
}

func (m *Machine) generate(ctx context.Context, s *domain.Session, req ports.ApprovalRequest) (string, error) {
	var ref string
	err := m.call(ctx, s, collabGenerator, func(ctx context.Context) error {
		if m.generator == nil {
			return errNotConfigured
		}
		var err error
		ref, err = m.generator.GenerateApprovalDocument(ctx, req)
		if err == nil && ref == "" {
			err = errors.New("empty document reference")
		}
		return err
	})
	return ref, err
}

func (m *Machine) extract(ctx context.Context, s *domain.Session, content []byte, doc domain.DocumentType) (domain.DocumentFields, error) {
	var fields domain.DocumentFields
	err := m.call(ctx, s, collabExtractor, func(ctx context.Context) error {
		if m.extractor == nil {
			return errNotConfigured
		}
		var err error
		fields, err = m.extractor.ExtractDocumentFields(ctx, content, doc)
		return err
	})
	return fields, err
}

func identityOf(s *domain.Session) ports.Identity {
	return ports.Identity{
		CustomerID: s.CustomerID,
		Email:      s.Email,
		Phone:      s.Profile.Phone,
		Name:       s.Profile.Name,
	}
}
