package flow

import (
	"context"
	"fmt"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/shopspring/decimal"
)

// Terms assumed on the approval document when the session lacks them.
const (
	defaultSanctionTenure  = 36
	defaultSanctionAddress = "As per records"
)

var defaultSanctionRate = decimal.NewFromFloat(10.5)

// sanction issues the approval document. Once a reference exists the
// conversation moves to completed; a generation failure keeps the stage so
// the next turn retries.
func (m *Machine) sanction(ctx context.Context, t *turn) outcome {
	s := t.session
	name := s.DisplayName()
	if s.Loan == nil {
		return outcome{stage: domain.StageDiscovery, handler: domain.HandlerMaster, text: m.askForAmount(s)}
	}
	s.ApplicationStatus = domain.ApplicationApproved
	if s.LoanID == "" {
		s.LoanID = m.loanID()
	}

	req := ports.ApprovalRequest{
		LoanID:       s.LoanID,
		CustomerName: s.Profile.Name,
		Address:      s.Profile.Address,
		Amount:       s.Amount(),
		TenureMonths: s.Loan.TenureMonths,
		Rate:         s.Loan.InterestRate,
		EMI:          s.Loan.EMI,
		IssuedAt:     m.now(),
	}
	if req.CustomerName == "" {
		req.CustomerName = "Customer"
	}
	if req.Address == "" {
		req.Address = defaultSanctionAddress
	}
	if req.TenureMonths <= 0 {
		req.TenureMonths = defaultSanctionTenure
	}
	if !req.Rate.IsPositive() {
		req.Rate = defaultSanctionRate
	}

	facts := map[string]any{
		"loan_id":       req.LoanID,
		"loan_amount":   rupees(req.Amount),
		"interest_rate": percent(req.Rate),
		"emi":           rupees(req.EMI),
		"tenure_months": req.TenureMonths,
	}

	ref, err := m.generate(ctx, s, req)
	if err != nil {
		return outcome{
			stage:   domain.StageSanction,
			handler: domain.HandlerSanction,
			text: m.say(ctx, t, ports.Scenario{
				Handler:     domain.HandlerSanction,
				Kind:        "document_failed",
				Tone:        ports.ToneAnalytical,
				Facts:       facts,
				Instruction: "Confirm the approval but explain a small technical issue with the sanction letter; offer to email it instead.",
			}, fmt.Sprintf("Great news %s! Your loan of %s is approved! 🎉 I'll email your sanction letter shortly.", name, rupees(req.Amount))),
		}
	}

	s.ApprovalDocument = ref
	facts["download_link"] = ref
	fallback := fmt.Sprintf("🎉 Congratulations %s! Your loan is approved!\n\n**Loan Summary:**\n- Amount: %s\n- Interest: %s%% p.a.\n- EMI: %s\n- Tenure: %d months\n\n📄 [Click here to download your sanction letter](%s)\n\nDisbursement within 2 working days. Any questions? I'm here to help!",
		name, rupees(req.Amount), percent(req.Rate), rupees(req.EMI), req.TenureMonths, ref)
	return outcome{
		stage:   domain.StageCompleted,
		handler: domain.HandlerCompleted,
		text: m.say(ctx, t, ports.Scenario{
			Handler:     domain.HandlerSanction,
			Kind:        "sanctioned",
			Tone:        ports.ToneAnalytical,
			Facts:       facts,
			Instruction: "Congratulate, summarise the loan, include the download link exactly as given, then next steps: review and sign, disbursement in 2 days, EMI from next month. The offer is valid 30 days; no prepayment penalty after 6 months.",
		}, fallback),
	}
}

// completed closes the conversation with a thank-you.
func (m *Machine) completed(_ context.Context, t *turn) outcome {
	return outcome{
		end:  true,
		text: fmt.Sprintf("Thank you for choosing %s, %s! 🙂\n\nYour loan is all set. Disbursement will happen within a few hours.\n\nIf you have any questions, feel free to come back. Take care!", m.brand.Company, t.session.DisplayName()),
	}
}
