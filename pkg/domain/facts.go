package domain

import "github.com/shopspring/decimal"

// Intent is the classified purpose of a single utterance.
type Intent string

const (
	IntentAmountProvided Intent = "amount_provided"
	IntentAgreement      Intent = "agreement"
	IntentLoanNeed       Intent = "loan_need"
	IntentLoanInquiry    Intent = "loan_inquiry"
	IntentSimpleYes      Intent = "simple_yes"
	IntentQuestion       Intent = "question"
	IntentHesitation     Intent = "hesitation"
	IntentDecline        Intent = "decline"
	IntentGreeting       Intent = "greeting"
	IntentClosing        Intent = "closing"
	IntentGeneral        Intent = "general"
)

// Positive reports whether the intent signals willingness to move forward.
func (i Intent) Positive() bool {
	switch i {
	case IntentLoanNeed, IntentLoanInquiry, IntentAgreement, IntentSimpleYes:
		return true
	}
	return false
}

// Sentiment is the coarse tone of an utterance.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Purpose is the stated use of the loan.
type Purpose string

const (
	PurposeNone      Purpose = ""
	PurposeHome      Purpose = "home"
	PurposeCar       Purpose = "car"
	PurposeWedding   Purpose = "wedding"
	PurposeEducation Purpose = "education"
	PurposeMedical   Purpose = "medical"
	PurposeTravel    Purpose = "travel"
	PurposeBusiness  Purpose = "business"
	PurposePersonal  Purpose = "personal"
)

// Facts is the structured reading of one utterance.
type Facts struct {
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Purpose      Purpose          `json:"purpose,omitempty"`
	TenureMonths int              `json:"tenure_months,omitempty"`
	Intent       Intent           `json:"intent"`
	Sentiment    Sentiment        `json:"sentiment"`
}

// HasAmount reports whether an amount was extracted.
func (f Facts) HasAmount() bool {
	return f.Amount != nil
}
