package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/lendflow/internal/signal"
	"github.com/aretw0/lendflow/internal/underwriting"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/shopspring/decimal"
)

// document asks for whatever is still pending and hands over to underwriting
// once nothing is.
func (m *Machine) document(ctx context.Context, t *turn) outcome {
	s := t.session
	name := s.DisplayName()
	pending := s.RequireDocuments()
	intent := signal.ClassifyDocumentIntent(t.text)

	scenario := ports.Scenario{
		Handler: domain.HandlerDocument,
		Kind:    "documents_" + string(intent),
		Tone:    ports.ToneConversational,
		Facts: map[string]any{
			"loan_amount": rupees(s.Amount()),
			"uploaded":    documentNames(s.UploadedDocuments),
			"pending":     documentNames(pending),
		},
	}

	if len(pending) == 0 {
		scenario.Kind = "documents_complete"
		scenario.Instruction = "All documents are in. Celebrate briefly and say the credit score is checked next."
		return outcome{
			stage:   domain.StageUnderwriting,
			handler: domain.HandlerUnderwriting,
			chain:   true,
			text:    m.say(ctx, t, scenario, fmt.Sprintf("All documents received, %s! Let me check your credit score now...", name)),
		}
	}

	switch intent {
	case signal.DocumentUploadComplete:
		scenario.Instruction = "The customer says they uploaded documents. Say which ones are still missing."
	case signal.DocumentQuestion:
		scenario.Instruction = "Answer the customer's question about the documents."
	case signal.DocumentHelp:
		scenario.Instruction = "Give clear step-by-step guidance for uploading with the 📎 button: clear photos, readable text."
	default:
		scenario.Instruction = "Request the pending documents in a friendly, non-pushy way and explain how to upload with the 📎 button."
	}
	return outcome{
		stage:   domain.StageDocumentCollection,
		handler: domain.HandlerDocument,
		text:    m.say(ctx, t, scenario, fmt.Sprintf("Hi %s! I need these documents: %s. Please upload using the 📎 button.", name, documentNames(pending))),
	}
}

func documentNames(types []domain.DocumentType) string {
	if len(types) == 0 {
		return "none"
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name()
	}
	return strings.Join(names, ", ")
}

// Upload validates a document, reads its fields and merges them into s.
// A PAN upload with a readable number also fetches the credit score.
// Extraction and bureau failures do not fail the upload.
func (m *Machine) Upload(ctx context.Context, s *domain.Session, docType domain.DocumentType, filename string, content []byte) (domain.UploadResult, error) {
	if s.ShouldEnd {
		return domain.UploadResult{}, domain.ErrSessionEnded
	}
	spec, ok := domain.SpecFor(docType)
	if !ok {
		return domain.UploadResult{}, fmt.Errorf("%w: %q", domain.ErrUnknownDocument, docType)
	}
	if err := spec.Accepts(filename, int64(len(content))); err != nil {
		return domain.UploadResult{}, err
	}

	ctx, span := m.tracer.Start(ctx, "flow.Upload")
	defer span.End()

	fields, err := m.extract(ctx, s, content, docType)
	if err != nil {
		fields = domain.DocumentFields{}
	}
	s.MarkUploaded(docType)
	mergeFields(s, fields)

	result := domain.UploadResult{
		SessionID: s.ID,
		Document:  docType,
		Message:   spec.Name + " uploaded successfully! ✅",
		Fields:    fields,
	}

	if docType == domain.DocumentPAN && filedPAN(s) != "" {
		if report, err := m.lookupCredit(ctx, s); err == nil {
			m.recordScore(s, report)
			result.CreditScore = report.Score
		}
	}

	result.Pending = s.PendingDocuments()
	s.UpdatedAt = m.now()
	m.logger.Info("Document uploaded", "session_id", s.ID, "document", docType, "pending", len(result.Pending))
	return result, nil
}

func mergeFields(s *domain.Session, f domain.DocumentFields) {
	if s.Profile.Name == "" && f.Name != "" {
		s.Profile.Name = f.Name
	}
	if s.Profile.Address == "" && f.Address != "" {
		s.Profile.Address = f.Address
	}
	if f.MonthlySalary.IsPositive() {
		s.Profile.MonthlySalary = f.MonthlySalary
	}
	if f.PAN != "" {
		s.PAN = f.PAN
	}
	if f.Aadhaar != "" {
		s.AadhaarNumber = f.Aadhaar
	}
}

// Limits derived from a bureau score when the profile has none.
var (
	derivedLimitBase     = decimal.NewFromInt(200000)
	derivedLimitPerPoint = decimal.NewFromInt(2000)
)

// recordScore stores a bureau answer on the profile. Without a pre-approved
// limit one is derived: 200000 plus 2000 for each point above the minimum score.
func (m *Machine) recordScore(s *domain.Session, report ports.CreditReport) {
	s.Profile.CreditScore = report.Score
	s.Profile.CreditRating = report.Rating
	if s.Profile.CreditRating == "" {
		s.Profile.CreditRating = underwriting.Rating(report.Score)
	}
	s.AwaitingPAN = false
	if !s.Profile.PreApprovedLimit.IsPositive() {
		above := max(report.Score-underwriting.MinimumScore, 0)
		s.Profile.PreApprovedLimit = derivedLimitBase.Add(derivedLimitPerPoint.Mul(decimal.NewFromInt(int64(above))))
	}
}
