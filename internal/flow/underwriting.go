package flow

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/lendflow/internal/signal"
	"github.com/aretw0/lendflow/internal/underwriting"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
)

// underwriting needs a PAN, or a score already on file, before it asks the
// bureau. It then decides: approval chains into sanction, missing income
// goes back to documents, rejection returns to sales with an alternative.
func (m *Machine) underwriting(ctx context.Context, t *turn) outcome {
	s := t.session
	name := s.DisplayName()
	here := outcome{stage: domain.StageUnderwriting, handler: domain.HandlerUnderwriting}

	if !s.Amount().IsPositive() {
		return outcome{stage: domain.StageDiscovery, handler: domain.HandlerMaster, text: m.askForAmount(s)}
	}

	pan := filedPAN(s)
	if pan == "" {
		if p, ok := signal.ParsePAN(t.text); ok {
			s.PAN, pan = p, p
		}
	}
	// A redacting store hands the PAN back masked. The score it earned is
	// still on the profile, so it is used as is.
	redacted := pan == "" && s.PAN != "" && s.Profile.CreditScore > 0
	if pan == "" && !redacted {
		if s.AwaitingPAN {
			here.text = fmt.Sprintf("Thanks, %s. I couldn't detect a valid **PAN** in your message.\n\nPlease type your PAN in this format: **ABCDE1234F** (5 letters, 4 digits, 1 letter),\nor upload a clear photo/PDF of your PAN card using the **+ Upload PAN** option below.\n\nI'll use it only to fetch your credit score securely.", name)
			return here
		}
		if s.Profile.CreditScore == 0 {
			s.AwaitingPAN = true
			here.text = fmt.Sprintf("To check your **real-time credit score** and complete your approval, I need your **PAN number**, %s.\n\nYou can either:\n1️⃣ **Type your PAN** here (e.g. `ABCDE1234F`), or\n2️⃣ **Upload your PAN card** using the **+ Upload PAN** option.\n\nI'll keep your PAN completely secure and use it only for this credit check.", name)
			return here
		}
	}

	if redacted {
		m.logger.Debug("PAN redacted in storage, keeping score on file", "session_id", s.ID)
	} else if err := m.score(ctx, s); err != nil {
		here.text = m.say(ctx, t, ports.Scenario{
			Handler:     domain.HandlerUnderwriting,
			Kind:        "bureau_error",
			Tone:        ports.ToneAnalytical,
			Instruction: "The credit bureau could not be reached. Explain the temporary issue and reassure the customer it will be retried.",
		}, fmt.Sprintf("I'm having trouble connecting to the credit bureau, %s. Let me try again...", name))
		return here
	}

	decision := underwriting.Decide(underwriting.Input{
		CreditScore:      s.Profile.CreditScore,
		RequestedAmount:  s.Amount(),
		PreApprovedLimit: s.Profile.PreApprovedLimit,
		MonthlySalary:    s.Profile.MonthlySalary,
		EMI:              s.Loan.EMI,
	})
	m.logger.Info("Underwriting decision", "session_id", s.ID, "status", decision.Status, "reason", decision.Reason, "score", s.Profile.CreditScore)

	scenario := ports.Scenario{
		Handler: domain.HandlerUnderwriting,
		Tone:    ports.ToneAnalytical,
		Facts: map[string]any{
			"credit_score":  fmt.Sprintf("%d/900", s.Profile.CreditScore),
			"credit_rating": s.Profile.CreditRating,
			"loan_amount":   rupees(s.Amount()),
			"pre_approved":  rupees(s.Profile.PreApprovedLimit),
			"interest_rate": percent(s.Loan.InterestRate),
			"emi":           rupees(s.Loan.EMI),
			"tenure_months": s.Loan.TenureMonths,
		},
	}
	for k, v := range underwriting.Factors(s.Profile.CreditScore) {
		scenario.Facts["factor_"+k] = v
	}
	review := fmt.Sprintf("Thank you for your patience, %s. Let me review your application...", name)

	switch decision.Status {
	case domain.ApplicationApproved:
		s.ApplicationStatus = domain.ApplicationApproved
		scenario.Kind = "approved"
		scenario.Instruction = "Celebrate the approval, summarise the loan and say the sanction letter is being generated."
		return outcome{
			stage:   domain.StageSanction,
			handler: domain.HandlerSanction,
			chain:   true,
			text:    m.say(ctx, t, scenario, fmt.Sprintf("Great news %s! Your loan of %s is approved! 🎉 Generating your sanction letter...", name, rupees(s.Amount()))),
		}
	case domain.ApplicationNeedsDocuments:
		if slices.Contains(s.UploadedDocuments, domain.DocumentSalarySlip) {
			// The slip is in but income could not be read from it.
			s.ApplicationStatus = domain.ApplicationUnderReview
			here.text = review
			return here
		}
		s.ApplicationStatus = domain.ApplicationNeedsDocuments
		scenario.Kind = "needs_income_proof"
		scenario.Instruction = "The amount is above the pre-approved limit, so income must be verified: the EMI has to stay under 50% of monthly income. Ask for a salary slip, positively."
		return outcome{
			stage:   domain.StageDocumentCollection,
			handler: domain.HandlerDocument,
			chain:   true,
			text:    m.say(ctx, t, scenario, fmt.Sprintf("Your credit score looks good, %s! Since the amount is above your pre-approved limit, I need to verify your income before approving.", name)),
		}
	}

	s.Reject(decision.Reason, decision.AlternativeAmount)
	scenario.Kind = "rejected"
	scenario.Facts["reason"] = decision.Message
	scenario.Facts["alternative_amount"] = rupees(decision.AlternativeAmount)
	scenario.Instruction = "Be empathetic and transparent about the reason. Offer the lower alternative amount, tips to improve the credit score, and reapplying in 3-6 months."
	fallback := fmt.Sprintf("%s\n\nI can still offer you %s, %s. Would you like to go ahead with that?", decision.Message, rupees(decision.AlternativeAmount), name)
	return outcome{
		stage:   domain.StageOfferPresentation,
		handler: domain.HandlerSales,
		text:    m.say(ctx, t, scenario, fallback),
	}
}

// score asks the bureau for a fresh score and records it.
func (m *Machine) score(ctx context.Context, s *domain.Session) error {
	report, err := m.lookupCredit(ctx, s)
	if err != nil {
		return err
	}
	m.recordScore(s, report)
	return nil
}

// filedPAN returns the session's PAN when it is well formed, and "" for a
// missing or masked one.
func filedPAN(s *domain.Session) string {
	if pan, ok := signal.ParsePAN(s.PAN); ok {
		return pan
	}
	return ""
}
