package signal

import (
	"regexp"
	"slices"
	"strings"

	"github.com/aretw0/lendflow/pkg/domain"
)

// IntentRule pairs a predicate with the intent it yields.
type IntentRule struct {
	Intent domain.Intent
	Match  func(msg string, facts domain.Facts) bool
}

var (
	agreementPhrases = []string{
		"made up my mind", "make up my mind", "decided", "i'm ready", "im ready",
		"let's do it", "lets do it", "go ahead", "proceed", "yes please",
		"definitely", "absolutely", "okay let's", "ok let's",
		"i want to", "i need to", "i am ready", "i'm good", "im good",
		"sounds good", "that works", "perfect", "great",
	}
	needWords       = []string{"need", "want", "require", "looking for"}
	loanNeedWords   = []string{"loan", "money", "funds", "finance", "credit"}
	loanInquiry     = []string{"loan", "borrow", "finance", "credit"}
	simpleYes       = []string{"yes", "ok", "okay", "sure", "yep", "yeah", "yea", "fine", "alright"}
	questionWords   = regexp.MustCompile(`\b(?:what|how|why|when|which)\b|tell me|explain`)
	hesitationWords = []string{
		"not sure", "maybe later", "think about it", "let me think",
		"too expensive", "too high", "can't afford", "cant afford",
	}
	declineWords  = []string{"no", "nope", "nah", "not now", "not interested", "no thanks"}
	greetingWords = []string{"hi", "hello", "hey", "hii", "hiii"}
	closingWords  = []string{"thank", "bye", "goodbye"}
)

// IntentRules is evaluated in order; the first matching rule decides.
// Amount and agreement come ahead of decline so "no no I need 5 lakhs"
// still moves forward.
var IntentRules = []IntentRule{
	{domain.IntentAmountProvided, func(_ string, f domain.Facts) bool { return f.HasAmount() }},
	{domain.IntentAgreement, func(m string, _ domain.Facts) bool { return containsAny(m, agreementPhrases) }},
	{domain.IntentLoanNeed, func(m string, _ domain.Facts) bool {
		return containsAny(m, needWords) && containsAny(m, loanNeedWords)
	}},
	{domain.IntentLoanInquiry, func(m string, _ domain.Facts) bool { return containsAny(m, loanInquiry) }},
	{domain.IntentSimpleYes, func(m string, _ domain.Facts) bool { return slices.Contains(simpleYes, bare(m)) }},
	{domain.IntentQuestion, func(m string, _ domain.Facts) bool {
		return strings.Contains(m, "?") || questionWords.MatchString(m)
	}},
	{domain.IntentHesitation, func(m string, _ domain.Facts) bool { return containsAny(m, hesitationWords) }},
	{domain.IntentDecline, func(m string, _ domain.Facts) bool { return slices.Contains(declineWords, bare(m)) }},
	{domain.IntentGreeting, func(m string, _ domain.Facts) bool { return IsGreeting(m) }},
	{domain.IntentClosing, func(m string, _ domain.Facts) bool { return containsAny(m, closingWords) }},
}

// ClassifyIntent returns the intent of text. facts supplies the amount
// already extracted from the same text.
func ClassifyIntent(text string, facts domain.Facts) domain.Intent {
	msg := normalize(text)
	for _, rule := range IntentRules {
		if rule.Match(msg, facts) {
			return rule.Intent
		}
	}
	return domain.IntentGeneral
}

// IsGreeting reports an exact greeting or one that opens the message.
func IsGreeting(text string) bool {
	msg := bare(normalize(text))
	if slices.Contains(greetingWords, msg) {
		return true
	}
	return strings.HasPrefix(msg, "hi ") || strings.HasPrefix(msg, "hello ") || strings.HasPrefix(msg, "hey ")
}

var (
	positiveWords = []string{"great", "good", "nice", "perfect", "excellent", "happy", "thanks", "wonderful", "love"}
	negativeWords = []string{"bad", "expensive", "high", "worried", "confused", "difficult", "problem"}
)

// ClassifySentiment counts positive and negative words; the majority wins.
func ClassifySentiment(text string) domain.Sentiment {
	var pos, neg int
	for _, w := range words(text) {
		if slices.Contains(positiveWords, w) {
			pos++
		}
		if slices.Contains(negativeWords, w) {
			neg++
		}
	}
	switch {
	case pos > neg:
		return domain.SentimentPositive
	case neg > pos:
		return domain.SentimentNegative
	}
	return domain.SentimentNeutral
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// bare strips trailing punctuation so "ok!" and "no." compare as words.
func bare(msg string) string {
	return strings.TrimRight(msg, ".!,")
}

var wordRe = regexp.MustCompile(`[a-z']+`)

func words(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}
