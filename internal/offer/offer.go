// Package offer computes loan offer terms: interest rate, EMI and tenure.
package offer

import (
	"math"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/shopspring/decimal"
)

// BaseRate is the annual rate in percent before credit adjustments.
var BaseRate = decimal.NewFromFloat(10.5)

// Tenure bounds, in months.
const (
	MinTenureMonths = 12
	MaxTenureMonths = 60
)

// Share of salary considered an affordable EMI.
var affordableShare = decimal.NewFromFloat(0.35)

// InterestRate returns the annual rate in percent for an amount, a credit score
// and a pre-approved limit. Better scores lower the rate; going above a
// known pre-approved limit adds one point.
func InterestRate(amount decimal.Decimal, creditScore int, preApproved decimal.Decimal) decimal.Decimal {
	rate := BaseRate
	switch {
	case creditScore >= 800:
		rate = rate.Sub(decimal.NewFromFloat(1.5))
	case creditScore >= 750:
		rate = rate.Sub(decimal.NewFromInt(1))
	case creditScore >= 700:
		rate = rate.Sub(decimal.NewFromFloat(0.5))
	}
	if preApproved.IsPositive() && amount.GreaterThan(preApproved) {
		rate = rate.Add(decimal.NewFromInt(1))
	}
	return rate.Round(2)
}

// EMI returns the reducing-balance monthly installment, rounded to 2 places.
func EMI(principal, annualRatePercent decimal.Decimal, tenureMonths int) decimal.Decimal {
	if tenureMonths <= 0 {
		return decimal.Zero
	}
	monthlyRate := annualRatePercent.InexactFloat64() / 1200
	if monthlyRate == 0 {
		return principal.Div(decimal.NewFromInt(int64(tenureMonths))).Round(2)
	}
	factor := math.Pow(1+monthlyRate, float64(tenureMonths))
	if math.IsInf(factor, 0) || math.IsNaN(factor) {
		// Very long tenures converge on interest-only payments.
		return principal.Mul(annualRatePercent).Div(decimal.NewFromInt(1200)).Round(2)
	}
	emi := principal.InexactFloat64() * monthlyRate * factor / (factor - 1)
	return decimal.NewFromFloat(emi).Round(2)
}

// ClampTenure caps a requested tenure at MaxTenureMonths. Shorter tenures are
// kept as asked; non-positive ones mean no preference and return 0.
func ClampTenure(months int) int {
	if months <= 0 {
		return 0
	}
	return min(months, MaxTenureMonths)
}

// SuggestTenure picks a tenure that keeps the EMI near 35% of salary:
// amount / (0.9 * target EMI), floored to whole years and clamped to 12..60.
func SuggestTenure(amount, monthlySalary decimal.Decimal) int {
	target := monthlySalary.Mul(affordableShare).Mul(decimal.NewFromFloat(0.9))
	if !target.IsPositive() {
		return MaxTenureMonths
	}
	raw := amount.Div(target).IntPart()
	months := int(raw/12) * 12
	return max(MinTenureMonths, min(MaxTenureMonths, months))
}

// Band is the offer band a requested amount falls in.
type Band int

const (
	// BandInstant: amount within the pre-approved limit.
	BandInstant Band = iota
	// BandDocuments: above the limit, up to twice it.
	BandDocuments
	// BandAlternative: more than twice the limit.
	BandAlternative
)

// Classify places amount in exactly one band relative to preApproved.
func Classify(amount, preApproved decimal.Decimal) Band {
	switch {
	case amount.LessThanOrEqual(preApproved):
		return BandInstant
	case amount.LessThanOrEqual(preApproved.Mul(decimal.NewFromInt(2))):
		return BandDocuments
	}
	return BandAlternative
}

// Status is the application status the band implies.
func (b Band) Status() domain.ApplicationStatus {
	switch b {
	case BandInstant:
		return domain.ApplicationPreApproved
	case BandDocuments:
		return domain.ApplicationNeedsDocuments
	}
	return domain.ApplicationNeedsNegotiation
}

func (b Band) String() string {
	switch b {
	case BandInstant:
		return "pre_approved"
	case BandDocuments:
		return "needs_documents"
	}
	return "too_high"
}

// Terms is a fully computed offer.
type Terms struct {
	Amount       decimal.Decimal `json:"amount"`
	Rate         decimal.Decimal `json:"rate"`
	TenureMonths int             `json:"tenure_months"`
	EMI          decimal.Decimal `json:"emi"`
}

// Quote computes terms for amount at rate over tenureMonths.
func Quote(amount, rate decimal.Decimal, tenureMonths int) Terms {
	return Terms{Amount: amount, Rate: rate, TenureMonths: tenureMonths, EMI: EMI(amount, rate, tenureMonths)}
}

// Alternatives returns the two counter-offers for an amount that is too high:
// min(1.5x limit, 0.7x amount) at the same rate, and the limit itself half a point cheaper.
func Alternatives(amount, preApproved, rate decimal.Decimal, tenureMonths int) []Terms {
	suggested := decimal.Min(preApproved.Mul(decimal.NewFromFloat(1.5)), amount.Mul(decimal.NewFromFloat(0.7))).Round(0)
	return []Terms{
		Quote(suggested, rate, tenureMonths),
		Quote(preApproved, rate.Sub(decimal.NewFromFloat(0.5)), tenureMonths),
	}
}
