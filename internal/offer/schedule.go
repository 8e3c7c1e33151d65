package offer

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment is one period of an amortization schedule.
type Installment struct {
	Period           int             `json:"period"`
	DueDate          time.Time       `json:"due_date"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	Total            decimal.Decimal `json:"total"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// Schedule computes the fixed-payment amortization table for the given terms.
// The first installment is due one month after start. The last period absorbs
// rounding so the balance reaches exactly zero.
func Schedule(t Terms, start time.Time) []Installment {
	if t.TenureMonths <= 0 || !t.Amount.IsPositive() {
		return nil
	}

	payment := t.EMI
	if payment.IsZero() {
		payment = EMI(t.Amount, t.Rate, t.TenureMonths)
	}
	monthlyRate := t.Rate.Div(decimal.NewFromInt(1200))

	schedule := make([]Installment, 0, t.TenureMonths)
	remaining := t.Amount
	for period := 1; period <= t.TenureMonths; period++ {
		interest := remaining.Mul(monthlyRate).Round(2)
		principal := payment.Sub(interest)
		if period == t.TenureMonths || principal.GreaterThan(remaining) {
			principal = remaining
		}

		remaining = remaining.Sub(principal)
		schedule = append(schedule, Installment{
			Period:           period,
			DueDate:          start.AddDate(0, period, 0),
			Principal:        principal,
			Interest:         interest,
			Total:            principal.Add(interest),
			RemainingBalance: remaining,
		})
		if remaining.IsZero() {
			break
		}
	}
	return schedule
}

// TotalInterest sums the interest column of a schedule.
func TotalInterest(schedule []Installment) decimal.Decimal {
	total := decimal.Zero
	for _, in := range schedule {
		total = total.Add(in.Interest)
	}
	return total
}
