package signal

import (
	"testing"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64 // 0 means no amount
	}{
		{"Lakhs", "I need a car loan of 5 lakhs", 500000},
		{"Decimal Lakh", "2.5 lakh please", 250000},
		{"Lac", "3 lac", 300000},
		{"L Suffix", "need 7L", 700000},
		{"Thousands", "50k is enough", 50000},
		{"Rupee Sign", "₹3,50,000", 350000},
		{"Rs Dot", "Rs. 200000", 200000},
		{"Rs Space", "rs 75,000", 75000},
		{"Bare Digits", "450000", 450000},
		{"Context Digits", "I need 8000", 8000},
		{"No Context Digits", "call me at 8000", 0},
		{"Phone Is Not Bare Amount", "my number is 9876543210", 0},
		{"Nothing", "hello there", 0},
		{"Loan Word Is Not L Suffix", "2 loans", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractAmount(tt.input)
			if tt.want == 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, got.Equal(decimal.NewFromInt(tt.want)), "got %s", got)
		})
	}
}

func TestExtractAmount_LakhBeatsBareDigits(t *testing.T) {
	inputs := []string{
		"12345 or maybe 5 lakhs",
		"5 lakhs, not 99999",
		"my pin is 400053 and I want 3 lakh",
	}
	for _, in := range inputs {
		got := ExtractAmount(in)
		require.NotNil(t, got, in)
		assert.Equal(t, int64(0), got.Mod(decimal.NewFromInt(100000)).IntPart(), in)
	}
}

func TestExtractPurpose(t *testing.T) {
	tests := []struct {
		input string
		want  domain.Purpose
	}{
		{"I want to renovate my house", domain.PurposeHome},
		{"need a new car", domain.PurposeCar},
		{"buying a two wheeler", domain.PurposeCar},
		{"for my sister's shaadi", domain.PurposeWedding},
		{"college fees", domain.PurposeEducation},
		{"hospital bills", domain.PurposeMedical},
		{"a trip to Goa", domain.PurposeTravel},
		{"expand my shop", domain.PurposeBusiness},
		{"it's an emergency", domain.PurposePersonal},
		{"home and car both", domain.PurposeHome},
		{"I take good care of my money", domain.PurposeNone},
		{"just browsing", domain.PurposeNone},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPurpose(tt.input))
		})
	}
}

func TestExtractTenure(t *testing.T) {
	assert.Equal(t, 36, ExtractTenure("for 3 years"))
	assert.Equal(t, 24, ExtractTenure("2yrs"))
	assert.Equal(t, 18, ExtractTenure("18 months"))
	assert.Equal(t, 36, ExtractTenure("3 years or 18 months"))
	assert.Equal(t, 0, ExtractTenure("soon"))
}

func TestExtract_Scenario(t *testing.T) {
	facts := Extract("I need a car loan of 5 lakhs for 4 years")
	require.True(t, facts.HasAmount())
	assert.True(t, facts.Amount.Equal(decimal.NewFromInt(500000)))
	assert.Equal(t, domain.PurposeCar, facts.Purpose)
	assert.Equal(t, 48, facts.TenureMonths)
	assert.Equal(t, domain.IntentAmountProvided, facts.Intent)
}
