package domain

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DocumentType tags an uploadable document.
type DocumentType string

const (
	DocumentAadhaar       DocumentType = "aadhaar"
	DocumentPAN           DocumentType = "pan"
	DocumentSalarySlip    DocumentType = "salary_slip"
	DocumentBankStatement DocumentType = "bank_statement"
)

// DocumentSpec describes what the intake accepts for a document type.
type DocumentSpec struct {
	Type      DocumentType
	Name      string
	Formats   []string
	MaxSizeMB int
}

var documentSpecs = map[DocumentType]DocumentSpec{
	DocumentAadhaar:       {Type: DocumentAadhaar, Name: "Aadhaar Card", Formats: []string{"jpg", "jpeg", "png", "pdf"}, MaxSizeMB: 5},
	DocumentPAN:           {Type: DocumentPAN, Name: "PAN Card", Formats: []string{"jpg", "jpeg", "png", "pdf"}, MaxSizeMB: 5},
	DocumentSalarySlip:    {Type: DocumentSalarySlip, Name: "Latest Salary Slip", Formats: []string{"jpg", "jpeg", "png", "pdf"}, MaxSizeMB: 5},
	DocumentBankStatement: {Type: DocumentBankStatement, Name: "Bank Statement", Formats: []string{"pdf"}, MaxSizeMB: 10},
}

// SpecFor returns the spec of a document type.
func SpecFor(t DocumentType) (DocumentSpec, bool) {
	spec, ok := documentSpecs[t]
	return spec, ok
}

// Name returns the display name of the document type.
func (t DocumentType) Name() string {
	if spec, ok := documentSpecs[t]; ok {
		return spec.Name
	}
	return string(t)
}

// Accepts reports whether a file with the given name and size fits the spec.
func (s DocumentSpec) Accepts(filename string, size int64) error {
	if size > int64(s.MaxSizeMB)*1024*1024 {
		return &DocumentError{Type: s.Type, Reason: "file too large, max " + strconv.Itoa(s.MaxSizeMB) + "MB"}
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, f := range s.Formats {
		if f == ext {
			return nil
		}
	}
	return &DocumentError{Type: s.Type, Reason: "invalid format, accepted: " + strings.Join(s.Formats, ", ")}
}

// DocumentError explains why an upload was refused.
type DocumentError struct {
	Type   DocumentType
	Reason string
}

func (e *DocumentError) Error() string {
	return string(e.Type) + ": " + e.Reason
}

// Unwrap lets callers match ErrDocumentRejected.
func (e *DocumentError) Unwrap() error {
	return ErrDocumentRejected
}

// RequiredDocuments computes the document set for an amount against a pre-approved limit:
// aadhaar and pan always, salary_slip above the limit, bank_statement above 1.5x the limit.
func RequiredDocuments(amount, preApproved decimal.Decimal) []DocumentType {
	required := []DocumentType{DocumentAadhaar, DocumentPAN}
	if amount.GreaterThan(preApproved) {
		required = append(required, DocumentSalarySlip)
	}
	if amount.GreaterThan(preApproved.Mul(decimal.NewFromFloat(1.5))) {
		required = append(required, DocumentBankStatement)
	}
	return required
}

// DocumentFields are the structured values read from an uploaded document.
type DocumentFields struct {
	Name          string          `json:"name,omitempty" mapstructure:"name"`
	Address       string          `json:"address,omitempty" mapstructure:"address"`
	DateOfBirth   string          `json:"dob,omitempty" mapstructure:"dob"`
	PAN           string          `json:"pan_number,omitempty" mapstructure:"pan_number"`
	Aadhaar       string          `json:"aadhaar_number,omitempty" mapstructure:"aadhaar_number"`
	MonthlySalary decimal.Decimal `json:"monthly_salary,omitempty" mapstructure:"-"`
	Employer      string          `json:"employer_name,omitempty" mapstructure:"employer_name"`
}
