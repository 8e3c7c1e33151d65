package ocr_test

import (
	"context"
	"testing"

	"github.com/aretw0/lendflow/internal/adapters/ocr"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	aadhaarText = "Government of India\nName: Asha Verma\nDOB: 14/08/1994\nAddress: 12 Lake Road,\n  Kolkata 700029\n1234 5678 9012\n"
	panText     = "INCOME TAX DEPARTMENT\nName: Asha Verma\nDate of Birth: 14/08/1994\nPermanent Account Number\nabcde1234f\n"
	slipText    = "Employer: Acme Technologies Pvt Ltd\nEmployee Name: Asha Verma\nGross Salary: Rs. 1,10,000\nNet Pay: ₹ 92,500\n"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		doc     domain.DocumentType
		content string
		want    domain.DocumentFields
	}{
		{
			name:    "aadhaar",
			doc:     domain.DocumentAadhaar,
			content: aadhaarText,
			want: domain.DocumentFields{
				Name:        "Asha Verma",
				DateOfBirth: "14/08/1994",
				Address:     "12 Lake Road, Kolkata",
				Aadhaar:     "1234-5678-9012",
			},
		},
		{
			name:    "pan",
			doc:     domain.DocumentPAN,
			content: panText,
			want:    domain.DocumentFields{Name: "Asha Verma", DateOfBirth: "14/08/1994", PAN: "ABCDE1234F"},
		},
		{
			name:    "image without text",
			doc:     domain.DocumentAadhaar,
			content: "\x89PNG\r\n\x1a\n\x00\x00",
			want:    domain.DocumentFields{},
		},
	}
	e := ocr.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractDocumentFields(context.Background(), []byte(tt.content), tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_SalarySlip(t *testing.T) {
	e := ocr.New()

	got, err := e.ExtractDocumentFields(context.Background(), []byte(slipText), domain.DocumentSalarySlip)
	require.NoError(t, err)
	assert.True(t, got.MonthlySalary.Equal(decimal.NewFromInt(92500)), "net pay wins, got %s", got.MonthlySalary)
	assert.Equal(t, "Acme Technologies Pvt Ltd", got.Employer)
	assert.Equal(t, "Asha Verma", got.Name)
}

func TestExtract_AssumedSalary(t *testing.T) {
	unread, err := ocr.New().ExtractDocumentFields(context.Background(), []byte("scan"), domain.DocumentSalarySlip)
	require.NoError(t, err)
	assert.True(t, unread.MonthlySalary.IsZero())

	e := ocr.New(ocr.WithAssumedSalary(decimal.NewFromInt(50000)))
	got, err := e.ExtractDocumentFields(context.Background(), []byte("scan"), domain.DocumentSalarySlip)
	require.NoError(t, err)
	assert.True(t, got.MonthlySalary.Equal(decimal.NewFromInt(50000)))
}

func TestExtract_UnknownType(t *testing.T) {
	_, err := ocr.New().ExtractDocumentFields(context.Background(), nil, "passport")
	assert.ErrorIs(t, err, domain.ErrUnknownDocument)
}
