package ports

import (
	"context"
	"time"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/shopspring/decimal"
)

// Tone selects how a reply should be generated.
type Tone string

const (
	// ToneConversational is used for sales and small talk.
	ToneConversational Tone = "conversational"
	// ToneAnalytical is used for decisions that must stay factual.
	ToneAnalytical Tone = "analytical"
)

// Scenario describes what a reply must convey: which handler speaks, the
// situation it is in and the facts it may quote.
type Scenario struct {
	Handler     domain.Handler `json:"handler"`
	Kind        string         `json:"kind"`
	Tone        Tone           `json:"tone"`
	Facts       map[string]any `json:"facts,omitempty"`
	Instruction string         `json:"instruction"`
	// UserMessage is the utterance being answered, if any.
	UserMessage string `json:"user_message,omitempty"`
}

// Composer turns a scenario into user-facing text.
type Composer interface {
	Compose(ctx context.Context, scenario Scenario) (string, error)
}

// Identity is what is known about who the applicant is.
type Identity struct {
	CustomerID string `json:"customer_id,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Name       string `json:"name,omitempty"`
}

// KYCResult is the outcome of an identity check.
type KYCResult struct {
	Found    bool   `json:"found"`
	Verified bool   `json:"verified"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
}

// KYCService verifies an applicant's identity.
type KYCService interface {
	LookupKYC(ctx context.Context, identity Identity) (KYCResult, error)
}

// CreditQuery asks for a score by PAN or, failing that, by identity.
type CreditQuery struct {
	PAN      string   `json:"pan,omitempty"`
	Identity Identity `json:"identity"`
}

// CreditReport is a bureau answer.
type CreditReport struct {
	Success  bool              `json:"success"`
	Score    int               `json:"score"`
	MaxScore int               `json:"max_score"`
	Rating   string            `json:"rating"`
	Factors  map[string]string `json:"factors,omitempty"`
}

// CreditBureau looks up credit scores.
type CreditBureau interface {
	LookupCreditScore(ctx context.Context, query CreditQuery) (CreditReport, error)
}

// ApprovalRequest holds what goes on a sanction letter.
type ApprovalRequest struct {
	LoanID       string          `json:"loan_id"`
	CustomerName string          `json:"customer_name"`
	Address      string          `json:"address"`
	Amount       decimal.Decimal `json:"amount"`
	TenureMonths int             `json:"tenure_months"`
	Rate         decimal.Decimal `json:"rate"`
	EMI          decimal.Decimal `json:"emi"`
	IssuedAt     time.Time       `json:"issued_at"`
}

// DocumentGenerator produces the approval document and returns a reference to it.
type DocumentGenerator interface {
	GenerateApprovalDocument(ctx context.Context, req ApprovalRequest) (string, error)
}

// FieldExtractor reads structured fields from an uploaded document.
type FieldExtractor interface {
	ExtractDocumentFields(ctx context.Context, document []byte, docType domain.DocumentType) (domain.DocumentFields, error)
}

// CustomerDirectory resolves known customers by ID or email.
// Returns domain.ErrCustomerNotFound when there is no match.
type CustomerDirectory interface {
	Lookup(ctx context.Context, key string) (domain.Customer, error)
}
