package flow

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// rupees formats an amount with thousands separators and no decimals. Amounts
// of any size are grouped exactly.
func rupees(d decimal.Decimal) string {
	return "₹" + humanize.BigComma(d.Round(0).BigInt())
}

// percent formats a rate the way offers quote it: 9, 9.5, 10.25.
func percent(d decimal.Decimal) string {
	return d.Round(2).String()
}

func tenureText(months int) string {
	if months < 12 {
		return fmt.Sprintf("%d months", months)
	}
	years := months / 12
	if years == 1 {
		return "1 year"
	}
	return fmt.Sprintf("%d years", years)
}
