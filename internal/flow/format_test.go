package flow

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRupees(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "₹0"},
		{"999", "₹999"},
		{"500000", "₹500,000"},
		{"10379.18", "₹10,379"},
		{"10379.5", "₹10,380"},
		{"9999999999999999999900000", "₹9,999,999,999,999,999,999,900,000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rupees(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestTenureText(t *testing.T) {
	assert.Equal(t, "6 months", tenureText(6))
	assert.Equal(t, "1 year", tenureText(12))
	assert.Equal(t, "3 years", tenureText(36))
}
