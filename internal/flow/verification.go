package flow

import (
	"context"
	"fmt"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
)

// verification checks identity. A verified applicant moves on to
// underwriting; anyone else is asked for documents. A failed lookup keeps
// the stage so the next turn retries.
func (m *Machine) verification(ctx context.Context, t *turn) outcome {
	s := t.session
	name := s.DisplayName()

	res, err := m.lookupKYC(ctx, s)
	if err != nil {
		return outcome{stage: domain.StageVerification, handler: domain.HandlerVerification,
			text: fmt.Sprintf("Let me verify your details, %s. One moment please...", name)}
	}

	scenario := ports.Scenario{
		Handler: domain.HandlerVerification,
		Tone:    ports.ToneAnalytical,
		Facts:   map[string]any{"loan_amount": rupees(s.Amount())},
	}
	var fallback string
	next := outcome{stage: domain.StageDocumentCollection, handler: domain.HandlerDocument, chain: true}

	switch {
	case res.Found && res.Verified:
		s.Profile.KYCVerified = true
		enrich(&s.Profile, res)
		scenario.Kind = "kyc_verified"
		scenario.Facts["phone"], scenario.Facts["address"], scenario.Facts["city"] = s.Profile.Phone, s.Profile.Address, s.Profile.City
		scenario.Instruction = "Confirm the identity is verified and say the credit score is checked next with a soft inquiry that does not affect it."
		fallback = fmt.Sprintf("Your details are verified, %s! ✅ Next I'll check your credit score - it's a soft inquiry and won't affect it.", name)
		if s.ApplicationStatus != domain.ApplicationNeedsDocuments {
			next = outcome{stage: domain.StageUnderwriting, handler: domain.HandlerUnderwriting, chain: true}
		}
	case res.Found:
		s.Profile.KYCVerified = false
		enrich(&s.Profile, res)
		s.ApplicationStatus = domain.ApplicationNeedsDocuments
		scenario.Kind = "kyc_pending"
		scenario.Instruction = "Explain the KYC is pending and documents are needed. Make it sound quick and reassure about security."
		fallback = fmt.Sprintf("Your KYC is still pending, %s. A couple of documents will sort it out in about 2 minutes. 🔒", name)
	default:
		s.Profile.KYCVerified = false
		s.ApplicationStatus = domain.ApplicationNeedsDocuments
		scenario.Kind = "kyc_not_found"
		scenario.Instruction = "The customer is new to us. Welcome them and explain a few documents are needed to verify them. Reassure about data security."
		fallback = fmt.Sprintf("Welcome aboard, %s! Since you're new with us, I'll need a few documents to verify your identity. 🔒", name)
	}

	next.text = m.say(ctx, t, scenario, fallback)
	return next
}

// enrich fills profile fields the KYC record knows and the profile does not.
func enrich(p *domain.CustomerProfile, res ports.KYCResult) {
	if p.Phone == "" {
		p.Phone = res.Phone
	}
	if p.Address == "" {
		p.Address = res.Address
	}
	if p.City == "" {
		p.City = res.City
	}
}
