package domain

// Reply is what the assistant says after a turn, with the routing it settled on.
type Reply struct {
	SessionID         string            `json:"session_id"`
	Text              string            `json:"reply"`
	Stage             Stage             `json:"stage"`
	Handler           Handler           `json:"handler"`
	ApplicationStatus ApplicationStatus `json:"application_status"`
	ShouldEnd         bool              `json:"should_end"`
	ApprovalDocument  string            `json:"approval_document,omitempty"`
}

// ReplyFor builds the reply for s after a turn produced text.
func ReplyFor(s *Session, text string) Reply {
	return Reply{
		SessionID:         s.ID,
		Text:              text,
		Stage:             s.Stage,
		Handler:           s.Handler,
		ApplicationStatus: s.ApplicationStatus,
		ShouldEnd:         s.ShouldEnd,
		ApprovalDocument:  s.ApprovalDocument,
	}
}

// UploadResult reports what an accepted document contributed to the session.
type UploadResult struct {
	SessionID   string         `json:"session_id"`
	Document    DocumentType   `json:"document_type"`
	Message     string         `json:"message"`
	Fields      DocumentFields `json:"extracted_data"`
	Pending     []DocumentType `json:"pending_documents"`
	CreditScore int            `json:"credit_score,omitempty"`
}
