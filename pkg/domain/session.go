package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Speaker identifies who produced a conversation log line.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// LogEntry is one line of the conversation log.
type LogEntry struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// CustomerProfile holds what is known about the applicant.
// Fields are only ever enriched; a zero value means unknown.
type CustomerProfile struct {
	Name             string          `json:"name,omitempty"`
	Phone            string          `json:"phone,omitempty"`
	Age              int             `json:"age,omitempty"`
	Address          string          `json:"address,omitempty"`
	City             string          `json:"city,omitempty"`
	PreApprovedLimit decimal.Decimal `json:"pre_approved_limit"`
	MonthlySalary    decimal.Decimal `json:"monthly_salary"`
	CreditScore      int             `json:"credit_score,omitempty"`
	CreditRating     string          `json:"credit_rating,omitempty"`
	KYCVerified      bool            `json:"kyc_verified"`
}

// Complete reports whether the profile carries everything onboarding collects.
func (p CustomerProfile) Complete() bool {
	return p.Name != "" && p.Phone != "" && p.Age > 0
}

// LoanRequest is created once an amount is first extracted.
type LoanRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	Purpose           Purpose         `json:"purpose,omitempty"`
	TenureMonths      int             `json:"tenure_months,omitempty"`
	InterestRate      decimal.Decimal `json:"interest_rate"`
	EMI               decimal.Decimal `json:"emi_amount"`
	EMIPresented      bool            `json:"emi_presented"`
	AlternativeAmount decimal.Decimal `json:"alternative_amount"`
}

// Session is the single aggregate for one conversation.
// Mutations go through its methods so the invariants hold.
type Session struct {
	ID         string   `json:"session_id"`
	CustomerID string   `json:"customer_id,omitempty"`
	Email      string   `json:"email,omitempty"`
	UserKind   UserKind `json:"user_kind"`

	Stage          Stage          `json:"stage"`
	Handler        Handler        `json:"handler"`
	OnboardingStep OnboardingStep `json:"onboarding_step,omitempty"`
	History        []Stage        `json:"history,omitempty"`

	Profile CustomerProfile `json:"customer_profile"`
	Loan    *LoanRequest    `json:"loan_request,omitempty"`

	ApplicationStatus ApplicationStatus  `json:"application_status"`
	Status            ConversationStatus `json:"status"`
	RejectionReason   string             `json:"rejection_reason,omitempty"`

	RequiredDocuments []DocumentType   `json:"required_documents,omitempty"`
	UploadedDocuments []DocumentType   `json:"uploaded_documents,omitempty"`
	DocumentsAmount   *decimal.Decimal `json:"documents_amount,omitempty"`

	AwaitingPAN   bool   `json:"awaiting_pan,omitempty"`
	PAN           string `json:"pan_number,omitempty"`
	AadhaarNumber string `json:"aadhaar_number,omitempty"`

	LoanID           string `json:"loan_id,omitempty"`
	ApprovalDocument string `json:"approval_document,omitempty"`

	Log       []LogEntry `json:"conversation_log,omitempty"`
	ShouldEnd bool       `json:"should_end"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries ciphertext when the session is stored encrypted.
	Sealed string `json:"__encrypted__,omitempty"`
}

// NewSession returns an active session positioned at stage.
func NewSession(id string, stage Stage, now time.Time) *Session {
	return &Session{
		ID:                id,
		Stage:             stage,
		Handler:           HandlerMaster,
		History:           []Stage{stage},
		ApplicationStatus: ApplicationPending,
		Status:            ConversationActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// SetAmount records an explicitly stated amount. A different amount drops any
// quote already presented so the next offer is computed afresh.
func (s *Session) SetAmount(amount decimal.Decimal, purpose Purpose) {
	if s.Loan == nil {
		s.Loan = &LoanRequest{}
	}
	if !s.Loan.Amount.Equal(amount) {
		s.Loan.Amount = amount
		s.Loan.TenureMonths = 0
		s.Loan.InterestRate = decimal.Zero
		s.Loan.EMI = decimal.Zero
		s.Loan.EMIPresented = false
	}
	if purpose != PurposeNone {
		s.Loan.Purpose = purpose
	}
}

// SetTenure records a requested tenure. It is ignored once an EMI was presented.
func (s *Session) SetTenure(months int) {
	if s.Loan == nil || s.Loan.EMIPresented || months <= 0 {
		return
	}
	s.Loan.TenureMonths = months
}

// Quoted reports whether an EMI has been presented for the current amount.
func (s *Session) Quoted() bool {
	return s.Loan != nil && s.Loan.EMIPresented
}

// Quote fixes the offer terms for the current amount. A quote already presented
// is kept, so a quoted EMI is never contradicted; it returns false in that case.
func (s *Session) Quote(rate, emi decimal.Decimal, tenureMonths int) bool {
	if s.Loan == nil || s.Loan.EMIPresented {
		return false
	}
	s.Loan.InterestRate = rate
	s.Loan.EMI = emi
	s.Loan.TenureMonths = tenureMonths
	s.Loan.EMIPresented = true
	return true
}

// Reject records a rejection with its reason and alternative amount and
// reopens the quote so the alternative can be offered.
func (s *Session) Reject(reason string, alternative decimal.Decimal) {
	s.ApplicationStatus = ApplicationRejected
	s.RejectionReason = reason
	if s.Loan != nil {
		s.Loan.AlternativeAmount = alternative
		s.Loan.EMIPresented = false
	}
}

// AcceptAlternative makes the alternative left by a rejection the requested
// amount. It reports false when there is no alternative to take.
func (s *Session) AcceptAlternative() bool {
	if s.Loan == nil || !s.Loan.AlternativeAmount.IsPositive() {
		return false
	}
	s.SetAmount(s.Loan.AlternativeAmount, PurposeNone)
	s.Loan.AlternativeAmount = decimal.Zero
	return true
}

// Amount returns the requested amount, or zero when none was stated.
func (s *Session) Amount() decimal.Decimal {
	if s.Loan == nil {
		return decimal.Zero
	}
	return s.Loan.Amount
}

// RequireDocuments fixes the required document set for the current amount.
// Calling it again for the same amount leaves the set untouched.
func (s *Session) RequireDocuments() []DocumentType {
	amount := s.Amount()
	if s.DocumentsAmount != nil && s.DocumentsAmount.Equal(amount) && len(s.RequiredDocuments) > 0 {
		return s.PendingDocuments()
	}
	s.RequiredDocuments = RequiredDocuments(amount, s.Profile.PreApprovedLimit)
	s.DocumentsAmount = &amount
	return s.PendingDocuments()
}

// MarkUploaded records an uploaded document. It reports whether the pending set shrank.
func (s *Session) MarkUploaded(t DocumentType) bool {
	if slices.Contains(s.UploadedDocuments, t) {
		return false
	}
	s.UploadedDocuments = append(s.UploadedDocuments, t)
	return slices.Contains(s.RequiredDocuments, t)
}

// PendingDocuments is RequiredDocuments minus UploadedDocuments, in required order.
func (s *Session) PendingDocuments() []DocumentType {
	var pending []DocumentType
	for _, t := range s.RequiredDocuments {
		if !slices.Contains(s.UploadedDocuments, t) {
			pending = append(pending, t)
		}
	}
	return pending
}

// AppendLog adds a line to the conversation log.
func (s *Session) AppendLog(speaker Speaker, text string, at time.Time) {
	s.Log = append(s.Log, LogEntry{Speaker: speaker, Text: text, At: at})
	s.UpdatedAt = at
}

// MoveTo sets the next stage and owning handler.
func (s *Session) MoveTo(stage Stage, handler Handler) error {
	if s.ShouldEnd {
		return ErrSessionEnded
	}
	if !stage.Valid() || !handler.Valid() {
		return ErrUnroutable
	}
	if stage != s.Stage || len(s.History) == 0 {
		s.History = append(s.History, stage)
	}
	s.Stage = stage
	s.Handler = handler
	if stage != StageOnboarding {
		s.OnboardingStep = OnboardingNone
	}
	return nil
}

// End closes the conversation. No further transitions are accepted.
func (s *Session) End() {
	if s.Stage != StageCompleted {
		s.History = append(s.History, StageCompleted)
	}
	s.Stage = StageCompleted
	s.Handler = HandlerCompleted
	s.ShouldEnd = true
	s.Status = ConversationCompleted
}

// Abandon marks an active conversation as abandoned; the session is kept.
func (s *Session) Abandon() {
	if s.Status == ConversationActive {
		s.Status = ConversationAbandoned
	}
}

// DisplayName is the first name, or "there" when unknown.
func (s *Session) DisplayName() string {
	name := s.Profile.Name
	for i, r := range name {
		if r == ' ' {
			return name[:i]
		}
	}
	if name == "" {
		return "there"
	}
	return name
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Loan != nil {
		loan := *s.Loan
		c.Loan = &loan
	}
	if s.DocumentsAmount != nil {
		amt := *s.DocumentsAmount
		c.DocumentsAmount = &amt
	}
	c.History = slices.Clone(s.History)
	c.RequiredDocuments = slices.Clone(s.RequiredDocuments)
	c.UploadedDocuments = slices.Clone(s.UploadedDocuments)
	c.Log = slices.Clone(s.Log)
	return &c
}
