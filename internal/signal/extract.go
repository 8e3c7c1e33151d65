// Package signal turns raw user utterances into structured facts.
//
// Every function here is pure: no I/O, no shared state. Extraction priority is
// expressed as ordered rule slices so each ordering can be tested on its own.
package signal

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/shopspring/decimal"
)

// Extract reads amount, purpose, tenure, intent and sentiment from text.
func Extract(text string) domain.Facts {
	facts := domain.Facts{
		Amount:       ExtractAmount(text),
		Purpose:      ExtractPurpose(text),
		TenureMonths: ExtractTenure(text),
	}
	facts.Intent = ClassifyIntent(text, facts)
	facts.Sentiment = ClassifySentiment(text)
	return facts
}

// amountRule reads a number from group 1 of re and scales it.
type amountRule struct {
	name       string
	re         *regexp.Regexp
	multiplier int64
	// needsContext restricts the rule to messages that talk about wanting money.
	needsContext bool
}

// amountRules are tried in order; the first match wins. Units come before
// bare digits so "5 lakh" is never read as 5.
var amountRules = []amountRule{
	{name: "lakh", re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:lakhs|lakh|lac|l)\b`), multiplier: 100000},
	{name: "thousand", re: regexp.MustCompile(`(\d+)\s*k\b`), multiplier: 1000},
	{name: "currency", re: regexp.MustCompile(`(?:₹|\brs\.?)\s*(\d[\d,]*)`), multiplier: 1},
	{name: "bare", re: regexp.MustCompile(`\b(\d{5,7})\b`), multiplier: 1},
	{name: "contextual", re: regexp.MustCompile(`\b(\d{4,})\b`), multiplier: 1, needsContext: true},
}

var amountContextWords = []string{"need", "want", "loan", "amount", "looking"}

// ExtractAmount returns the rupee amount stated in text, or nil.
func ExtractAmount(text string) *decimal.Decimal {
	lower := strings.ToLower(text)
	for _, rule := range amountRules {
		if rule.needsContext && !containsAny(lower, amountContextWords) {
			continue
		}
		m := rule.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		n, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err != nil || !n.IsPositive() {
			continue
		}
		amount := n.Mul(decimal.NewFromInt(rule.multiplier))
		return &amount
	}
	return nil
}

type purposeRule struct {
	purpose domain.Purpose
	re      *regexp.Regexp
}

func keywords(words ...string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:` + strings.Join(words, "|") + `)s?\b`)
}

// purposeRules are checked in enumeration order; the first category with a hit wins.
var purposeRules = []purposeRule{
	{domain.PurposeHome, keywords("home", "house", "flat", "apartment", "property", "renovation", "interior")},
	{domain.PurposeCar, keywords("car", "vehicle", "bike", "scooter", "two wheeler", "auto")},
	{domain.PurposeWedding, keywords("wedding", "marriage", "shaadi")},
	{domain.PurposeEducation, keywords("education", "study", "college", "university", "course", "tuition")},
	{domain.PurposeMedical, keywords("medical", "hospital", "treatment", "surgery", "health", "doctor")},
	{domain.PurposeTravel, keywords("travel", "vacation", "trip", "holiday", "tour")},
	{domain.PurposeBusiness, keywords("business", "startup", "shop", "enterprise")},
	{domain.PurposePersonal, keywords("personal", "emergency", "urgent")},
}

// ExtractPurpose returns the loan purpose mentioned in text, if any.
func ExtractPurpose(text string) domain.Purpose {
	lower := strings.ToLower(text)
	for _, rule := range purposeRules {
		if rule.re.MatchString(lower) {
			return rule.purpose
		}
	}
	return domain.PurposeNone
}

var (
	tenureYears  = regexp.MustCompile(`(\d+)\s*(?:years|year|yrs|yr)\b`)
	tenureMonths = regexp.MustCompile(`(\d+)\s*(?:months|month|mon)\b`)
)

// ExtractTenure returns the tenure in months mentioned in text, or 0.
func ExtractTenure(text string) int {
	lower := strings.ToLower(text)
	if m := tenureYears.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n * 12
	}
	if m := tenureMonths.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
