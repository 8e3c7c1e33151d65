package domain

import "github.com/shopspring/decimal"

// SessionDiff represents the changes between two snapshots of a session.
// It is serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Stage             *Stage              `json:"stage,omitempty"`
	Handler           *Handler            `json:"handler,omitempty"`
	ApplicationStatus *ApplicationStatus  `json:"application_status,omitempty"`
	Status            *ConversationStatus `json:"status,omitempty"`
	Amount            *decimal.Decimal    `json:"loan_amount,omitempty"`
	EMI               *decimal.Decimal    `json:"emi_amount,omitempty"`
	PendingDocuments  []DocumentType      `json:"pending_documents,omitempty"`

	// History and Log carry only appended items.
	History *HistoryDelta `json:"history,omitempty"`
	Log     []LogEntry    `json:"log,omitempty"`

	ShouldEnd *bool `json:"should_end,omitempty"`
}

// HistoryDelta represents stages appended to the history.
type HistoryDelta struct {
	Appended []Stage `json:"appended"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession (initial load).
// It returns nil when nothing changed.
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}
	if oldSession == nil {
		oldSession = &Session{}
	}

	diff := &SessionDiff{SessionID: newSession.ID}

	if oldSession.Stage != newSession.Stage {
		diff.Stage = &newSession.Stage
	}
	if oldSession.Handler != newSession.Handler {
		diff.Handler = &newSession.Handler
	}
	if oldSession.ApplicationStatus != newSession.ApplicationStatus {
		diff.ApplicationStatus = &newSession.ApplicationStatus
	}
	if oldSession.Status != newSession.Status {
		diff.Status = &newSession.Status
	}
	if oldSession.ShouldEnd != newSession.ShouldEnd {
		diff.ShouldEnd = &newSession.ShouldEnd
	}

	oldAmount, newAmount := oldSession.Amount(), newSession.Amount()
	if !oldAmount.Equal(newAmount) {
		diff.Amount = &newAmount
	}
	if newSession.Loan != nil && (oldSession.Loan == nil || !oldSession.Loan.EMI.Equal(newSession.Loan.EMI)) {
		emi := newSession.Loan.EMI
		if !emi.IsZero() {
			diff.EMI = &emi
		}
	}

	oldPending, newPending := oldSession.PendingDocuments(), newSession.PendingDocuments()
	if len(oldPending) != len(newPending) {
		diff.PendingDocuments = newPending
	}

	// History and log are append-only.
	if n := len(oldSession.History); len(newSession.History) > n {
		diff.History = &HistoryDelta{Appended: newSession.History[n:]}
	}
	if n := len(oldSession.Log); len(newSession.Log) > n {
		diff.Log = newSession.Log[n:]
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.Stage == nil &&
		d.Handler == nil &&
		d.ApplicationStatus == nil &&
		d.Status == nil &&
		d.Amount == nil &&
		d.EMI == nil &&
		d.PendingDocuments == nil &&
		d.History == nil &&
		len(d.Log) == 0 &&
		d.ShouldEnd == nil
}
