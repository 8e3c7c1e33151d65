package signal

import "strings"

// Concern is what a hesitant user is worried about.
type Concern string

const (
	ConcernRate      Concern = "rate"
	ConcernTiming    Concern = "timing"
	ConcernPaperwork Concern = "paperwork"
	ConcernGeneral   Concern = "general"
)

var concernRules = []struct {
	concern Concern
	words   []string
}{
	{ConcernRate, []string{"expensive", "high", "rate", "interest"}},
	{ConcernTiming, []string{"think", "later", "not sure"}},
	{ConcernPaperwork, []string{"document", "paperwork", "hassle"}},
}

// ClassifyConcern picks the concern behind a hesitant message.
func ClassifyConcern(text string) Concern {
	msg := strings.ToLower(text)
	for _, rule := range concernRules {
		if containsAny(msg, rule.words) {
			return rule.concern
		}
	}
	return ConcernGeneral
}

// DocumentIntent is what the user means while documents are being collected.
type DocumentIntent string

const (
	DocumentUploadComplete DocumentIntent = "upload_complete"
	DocumentQuestion       DocumentIntent = "question"
	DocumentHelp           DocumentIntent = "help"
	DocumentGeneral        DocumentIntent = "general"
)

var documentIntentRules = []struct {
	intent DocumentIntent
	words  []string
}{
	{DocumentUploadComplete, []string{"uploaded", "done", "sent", "attached", "submitted"}},
	{DocumentQuestion, []string{"?", "what", "how", "why", "which"}},
	{DocumentHelp, []string{"help", "confused", "don't understand", "dont understand", "problem"}},
}

// ClassifyDocumentIntent reads a message sent during document collection.
func ClassifyDocumentIntent(text string) DocumentIntent {
	msg := strings.ToLower(text)
	for _, rule := range documentIntentRules {
		if containsAny(msg, rule.words) {
			return rule.intent
		}
	}
	return DocumentGeneral
}
