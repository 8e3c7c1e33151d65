package underwriting

import (
	"testing"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func n(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		in         Input
		wantStatus domain.ApplicationStatus
		wantReason string
		wantAlt    int64
	}{
		{
			name:       "Score Floor Beats Affordability",
			in:         Input{CreditScore: 650, RequestedAmount: n(100000), PreApprovedLimit: n(500000), MonthlySalary: n(50000), EMI: n(20000)},
			wantStatus: domain.ApplicationRejected,
			wantReason: ReasonScoreBelowMinimum,
			wantAlt:    250000,
		},
		{
			name:       "Score Floor Without Limit",
			in:         Input{CreditScore: 600, RequestedAmount: n(100000)},
			wantStatus: domain.ApplicationRejected,
			wantReason: ReasonScoreBelowMinimum,
			wantAlt:    100000,
		},
		{
			name:       "Within Pre-Approval",
			in:         Input{CreditScore: 750, RequestedAmount: n(300000), PreApprovedLimit: n(500000)},
			wantStatus: domain.ApplicationApproved,
		},
		{
			name:       "Income Check Passes",
			in:         Input{CreditScore: 750, RequestedAmount: n(900000), PreApprovedLimit: n(500000), MonthlySalary: n(50000), EMI: n(20000)},
			wantStatus: domain.ApplicationApproved,
		},
		{
			name:       "Income Check At Boundary",
			in:         Input{CreditScore: 750, RequestedAmount: n(900000), PreApprovedLimit: n(500000), MonthlySalary: n(50000), EMI: n(25000)},
			wantStatus: domain.ApplicationApproved,
		},
		{
			name:       "Income Check Fails",
			in:         Input{CreditScore: 750, RequestedAmount: n(900000), PreApprovedLimit: n(500000), MonthlySalary: n(50000), EMI: n(30000)},
			wantStatus: domain.ApplicationRejected,
			wantReason: ReasonEMIExceedsIncome,
			wantAlt:    500000,
		},
		{
			name:       "Salary Unknown",
			in:         Input{CreditScore: 750, RequestedAmount: n(900000), PreApprovedLimit: n(500000), EMI: n(30000)},
			wantStatus: domain.ApplicationNeedsDocuments,
		},
		{
			name:       "Far Above Limit",
			in:         Input{CreditScore: 820, RequestedAmount: n(1000001), PreApprovedLimit: n(500000), MonthlySalary: n(500000), EMI: n(1)},
			wantStatus: domain.ApplicationRejected,
			wantReason: ReasonAmountExceedsLimit,
			wantAlt:    500000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.in)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantReason, got.Reason)
			assert.True(t, got.AlternativeAmount.Equal(n(tt.wantAlt)), "alternative %s", got.AlternativeAmount)
			if got.Status == domain.ApplicationRejected {
				assert.NotEmpty(t, got.Message)
			}
		})
	}
}

func TestDecide_Deterministic(t *testing.T) {
	in := Input{CreditScore: 720, RequestedAmount: n(700000), PreApprovedLimit: n(500000), MonthlySalary: n(40000), EMI: n(15000)}
	first := Decide(in)
	for range 10 {
		assert.Equal(t, first, Decide(in))
	}
}

func TestRating(t *testing.T) {
	cases := map[int]string{850: "Excellent", 800: "Excellent", 799: "Very Good", 750: "Very Good", 700: "Good", 650: "Fair", 649: "Poor"}
	for score, want := range cases {
		assert.Equal(t, want, Rating(score), "score %d", score)
	}
}

func TestFactors(t *testing.T) {
	assert.Equal(t, "Excellent", Factors(780)["payment_history"])
	assert.Equal(t, "Low", Factors(780)["credit_utilization"])
	assert.Equal(t, "Good", Factors(750)["payment_history"])
	assert.Equal(t, "Moderate", Factors(700)["credit_utilization"])
}
