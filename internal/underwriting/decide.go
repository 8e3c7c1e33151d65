// Package underwriting decides loan applications from credit and income facts.
package underwriting

import (
	"fmt"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/shopspring/decimal"
)

// MinimumScore is the credit floor below which applications are rejected.
const MinimumScore = 700

// Alternative offered on a score rejection when no pre-approved limit exists.
var fallbackAlternative = decimal.NewFromInt(100000)

// Reason codes attached to rejections.
const (
	ReasonScoreBelowMinimum  = "score_below_minimum"
	ReasonEMIExceedsIncome   = "emi_exceeds_income"
	ReasonAmountExceedsLimit = "amount_exceeds_limit"
)

// Input carries the facts a decision needs. A zero MonthlySalary means unknown.
type Input struct {
	CreditScore      int
	RequestedAmount  decimal.Decimal
	PreApprovedLimit decimal.Decimal
	MonthlySalary    decimal.Decimal
	EMI              decimal.Decimal
}

// Decision is the outcome of Decide.
type Decision struct {
	Status            domain.ApplicationStatus
	Reason            string
	Message           string
	AlternativeAmount decimal.Decimal
}

// Approved reports whether the decision approves the request.
func (d Decision) Approved() bool {
	return d.Status == domain.ApplicationApproved
}

type rule struct {
	name  string
	match func(Input) bool
	apply func(Input) Decision
}

// rules form a risk ladder: credit floor, instant approval inside the limit,
// income check up to twice the limit, hard ceiling beyond. First match wins.
var rules = []rule{
	{
		name:  "credit floor",
		match: func(in Input) bool { return in.CreditScore < MinimumScore },
		apply: func(in Input) Decision {
			alt := fallbackAlternative
			if in.PreApprovedLimit.IsPositive() {
				alt = in.PreApprovedLimit.Mul(decimal.NewFromFloat(0.5))
			}
			return Decision{
				Status:            domain.ApplicationRejected,
				Reason:            ReasonScoreBelowMinimum,
				Message:           fmt.Sprintf("Unfortunately, your credit score of %d is below our minimum requirement of %d.", in.CreditScore, MinimumScore),
				AlternativeAmount: alt,
			}
		},
	},
	{
		name:  "within pre-approved limit",
		match: func(in Input) bool { return in.RequestedAmount.LessThanOrEqual(in.PreApprovedLimit) },
		apply: func(Input) Decision { return Decision{Status: domain.ApplicationApproved} },
	},
	{
		name: "income check",
		match: func(in Input) bool {
			return in.RequestedAmount.LessThanOrEqual(in.PreApprovedLimit.Mul(decimal.NewFromInt(2)))
		},
		apply: func(in Input) Decision {
			if !in.MonthlySalary.IsPositive() {
				return Decision{Status: domain.ApplicationNeedsDocuments}
			}
			if in.EMI.LessThanOrEqual(in.MonthlySalary.Mul(decimal.NewFromFloat(0.5))) {
				return Decision{Status: domain.ApplicationApproved}
			}
			return Decision{
				Status:            domain.ApplicationRejected,
				Reason:            ReasonEMIExceedsIncome,
				Message:           fmt.Sprintf("The monthly EMI of ₹%s exceeds 50%% of your monthly income.", in.EMI.StringFixed(0)),
				AlternativeAmount: in.PreApprovedLimit,
			}
		},
	},
	{
		name:  "ceiling",
		match: func(Input) bool { return true },
		apply: func(in Input) Decision {
			return Decision{
				Status:            domain.ApplicationRejected,
				Reason:            ReasonAmountExceedsLimit,
				Message:           fmt.Sprintf("The requested amount of ₹%s is significantly higher than your pre-approved limit of ₹%s.", in.RequestedAmount.StringFixed(0), in.PreApprovedLimit.StringFixed(0)),
				AlternativeAmount: in.PreApprovedLimit,
			}
		},
	},
}

// Decide evaluates the rule ladder for in.
func Decide(in Input) Decision {
	for _, r := range rules {
		if r.match(in) {
			return r.apply(in)
		}
	}
	// unreachable: the last rule always matches
	return Decision{Status: domain.ApplicationUnderReview}
}
