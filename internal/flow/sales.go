package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/lendflow/internal/offer"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/shopspring/decimal"
)

// Profile values assumed for offer computation when the applicant's are unknown.
// Underwriting always sees the real, possibly unknown, values.
var (
	defaultPreApproved = decimal.NewFromInt(500000)
	defaultSalary      = decimal.NewFromInt(50000)
)

const defaultOfferScore = 700

// sales presents offers and reacts to the applicant's answer.
func (m *Machine) sales(ctx context.Context, t *turn) outcome {
	s := t.session
	name := s.DisplayName()
	offerStage := outcome{stage: domain.StageOfferPresentation, handler: domain.HandlerSales}

	switch t.facts.Intent {
	case domain.IntentHesitation, domain.IntentDecline:
		offerStage.text = m.say(ctx, t, ports.Scenario{
			Handler:     domain.HandlerSales,
			Kind:        "hesitation",
			Tone:        ports.ToneConversational,
			Facts:       map[string]any{"pre_approved": rupees(preApproved(s))},
			Instruction: "The customer is hesitating. Acknowledge the concern, offer alternatives or more information, no pressure.",
		}, fmt.Sprintf("I understand, %s. Take your time - no pressure at all. Let me know if you have any questions.", name))
		return offerStage
	case domain.IntentQuestion:
		offerStage.text = m.say(ctx, t, ports.Scenario{
			Handler: domain.HandlerSales,
			Kind:    "question",
			Tone:    ports.ToneConversational,
			Facts: map[string]any{
				"pre_approved": rupees(preApproved(s)),
				"loan_amount":  rupees(s.Amount()),
			},
			Instruction: "Answer the question. Rates range from 10.5% to 16% by credit score; Aadhaar and PAN are always needed, a salary slip above the pre-approved amount; pre-approved loans are same day, larger ones take 24-48 hours.",
		}, fmt.Sprintf("Great question, %s! Let me help you with that. Could you tell me more about what you'd like to know?", name))
		return offerStage
	}

	positive := t.facts.Intent == domain.IntentAgreement || t.facts.Intent == domain.IntentSimpleYes
	if positive && s.Quoted() {
		return m.proceed(s)
	}
	if positive && s.AcceptAlternative() {
		m.logger.Debug("Alternative accepted", "session_id", s.ID, "amount", s.Amount())
	}

	if !s.Amount().IsPositive() {
		offerStage.text = m.say(ctx, t, ports.Scenario{
			Handler:     domain.HandlerSales,
			Kind:        "discovery",
			Tone:        ports.ToneConversational,
			Facts:       map[string]any{"pre_approved": rupees(s.Profile.PreApprovedLimit)},
			Instruction: "The customer has not given an amount. Ask how much they need and, optionally, what for.",
		}, discoveryText(s))
		return offerStage
	}

	terms := m.quote(s)
	offerStage.text = m.presentOffer(ctx, t, terms)
	return offerStage
}

// proceed routes an accepted offer onward. Needing documents goes straight to
// collection; everything else is verified first.
func (m *Machine) proceed(s *domain.Session) outcome {
	switch s.ApplicationStatus {
	case domain.ApplicationNeedsDocuments:
		return outcome{stage: domain.StageDocumentCollection, handler: domain.HandlerDocument, chain: true,
			text: fmt.Sprintf("Great, %s! Since the amount is above your pre-approved limit, I'll need a few documents.", s.DisplayName())}
	case domain.ApplicationNeedsNegotiation:
		// Taking the first counter-offer re-quotes it; the applicant confirms again.
		alts := offer.Alternatives(s.Amount(), preApproved(s), s.Loan.InterestRate, s.Loan.TenureMonths)
		s.SetAmount(alts[0].Amount, domain.PurposeNone)
		terms := m.quote(s)
		return outcome{stage: domain.StageOfferPresentation, handler: domain.HandlerSales,
			text: fmt.Sprintf("Let's go with %s, %s.\n\n%s", rupees(terms.Amount), s.DisplayName(), offerText(terms))}
	}
	return outcome{stage: domain.StageVerification, handler: domain.HandlerVerification, chain: true,
		text: fmt.Sprintf("Great, %s! Let me verify your details quickly.", s.DisplayName())}
}

// quote fixes the terms for the current amount unless they were already
// presented, and sets the application status from the offer band.
func (m *Machine) quote(s *domain.Session) offer.Terms {
	if s.Quoted() {
		return offer.Terms{Amount: s.Loan.Amount, Rate: s.Loan.InterestRate, TenureMonths: s.Loan.TenureMonths, EMI: s.Loan.EMI}
	}
	score := s.Profile.CreditScore
	if score == 0 {
		score = defaultOfferScore
	}
	amount := s.Amount()
	rate := offer.InterestRate(amount, score, s.Profile.PreApprovedLimit)
	tenure := offer.ClampTenure(s.Loan.TenureMonths)
	if tenure == 0 {
		salary := s.Profile.MonthlySalary
		if !salary.IsPositive() {
			salary = defaultSalary
		}
		tenure = offer.SuggestTenure(amount, salary)
	}
	terms := offer.Quote(amount, rate, tenure)
	s.Quote(terms.Rate, terms.EMI, terms.TenureMonths)
	s.ApplicationStatus = offer.Classify(amount, preApproved(s)).Status()
	return terms
}

func (m *Machine) presentOffer(ctx context.Context, t *turn, terms offer.Terms) string {
	s := t.session
	pre := preApproved(s)
	band := offer.Classify(terms.Amount, pre)

	facts := map[string]any{
		"band":          band.String(),
		"loan_amount":   rupees(terms.Amount),
		"pre_approved":  rupees(pre),
		"tenure":        tenureText(terms.TenureMonths),
		"interest_rate": percent(terms.Rate),
		"emi":           rupees(terms.EMI),
	}
	if s.Loan.Purpose != domain.PurposeNone {
		facts["purpose"] = string(s.Loan.Purpose)
	}
	if salary := s.Profile.MonthlySalary; salary.IsPositive() {
		facts["emi_to_income_percent"] = terms.EMI.Div(salary).Mul(decimal.NewFromInt(100)).Round(0).String()
	}

	fallback := offerText(terms)
	var instruction string
	switch band {
	case offer.BandInstant:
		instruction = "Present the offer. The amount is within the pre-approved limit. Mention the estimate disclaimer and ask whether to proceed to KYC verification."
	case offer.BandDocuments:
		instruction = "Present the offer. The amount is above the pre-approved limit, so salary slip, Aadhaar and PAN are needed; approval usually takes 24 hours after documents. Ask whether to proceed."
	default:
		alts := offer.Alternatives(terms.Amount, pre, terms.Rate, terms.TenureMonths)
		facts["option_1_amount"], facts["option_1_emi"] = rupees(alts[0].Amount), rupees(alts[0].EMI)
		facts["option_2_amount"], facts["option_2_emi"] = rupees(alts[1].Amount), rupees(alts[1].EMI)
		instruction = "The requested amount is too high. Be upfront and offer both options; a top-up is possible after 6-12 months of repayment. Ask which option to explore."
		fallback = alternativesText(s.DisplayName(), terms.Amount, alts)
	}
	return m.say(ctx, t, ports.Scenario{
		Handler:     domain.HandlerSales,
		Kind:        "offer_" + band.String(),
		Tone:        ports.ToneConversational,
		Facts:       facts,
		Instruction: instruction,
	}, fallback)
}

func offerText(terms offer.Terms) string {
	return fmt.Sprintf("Here's what I can offer for %s:\n\n- **Tenure**: %s\n- **Interest rate**: %s%% per year (estimated)\n- **Monthly EMI**: %s\n\n*This is an estimate - final terms depend on verification.*\n\nWould you like to proceed?",
		rupees(terms.Amount), tenureText(terms.TenureMonths), percent(terms.Rate), rupees(terms.EMI))
}

func alternativesText(name string, requested decimal.Decimal, alts []offer.Terms) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is above what I can offer right now, %s. Here are two options:\n\n", rupees(requested), name)
	fmt.Fprintf(&b, "1. %s with EMI ~%s/month (needs income verification)\n", rupees(alts[0].Amount), rupees(alts[0].EMI))
	fmt.Fprintf(&b, "2. %s with EMI ~%s/month at %s%% (minimal docs)\n\n", rupees(alts[1].Amount), rupees(alts[1].EMI), percent(alts[1].Rate))
	b.WriteString("You can also get a top-up after 6-12 months of repayment. Which option would you like to explore?")
	return b.String()
}

func discoveryText(s *domain.Session) string {
	if s.Profile.PreApprovedLimit.IsPositive() {
		return fmt.Sprintf("How much are you looking for, %s? Based on your profile, you're likely eligible for up to %s.", s.DisplayName(), rupees(s.Profile.PreApprovedLimit))
	}
	return fmt.Sprintf("How much are you looking for, %s? Once I know, I can give you specific options.", s.DisplayName())
}

func preApproved(s *domain.Session) decimal.Decimal {
	if s.Profile.PreApprovedLimit.IsPositive() {
		return s.Profile.PreApprovedLimit
	}
	return defaultPreApproved
}
