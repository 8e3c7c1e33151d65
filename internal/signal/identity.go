package signal

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Words that are greetings rather than names when given at the name prompt.
var nameGreetings = []string{"hi", "hello", "hey", "hii", "hiii", "namaste", "good morning", "good evening"}

// ParseName validates a name answer and returns it title-cased.
// ok is false for greetings, digits, or a length outside 2..50.
func ParseName(text string) (name string, ok bool) {
	msg := strings.TrimSpace(text)
	if slices.Contains(nameGreetings, strings.ToLower(msg)) {
		return "", false
	}
	name = titleCase(msg)
	if len(name) < 2 || len(name) > 50 {
		return "", false
	}
	if strings.ContainsFunc(name, unicode.IsDigit) {
		return "", false
	}
	return name, true
}

// IsNameGreeting reports whether text is a greeting given in place of a name.
func IsNameGreeting(text string) bool {
	return slices.Contains(nameGreetings, strings.ToLower(strings.TrimSpace(text)))
}

var phoneRe = regexp.MustCompile(`[6-9]\d{9}`)

// ParsePhone finds an Indian mobile number and returns it as +91-XXXXXXXXXX.
func ParsePhone(text string) (string, bool) {
	compact := strings.NewReplacer(" ", "", "-", "").Replace(text)
	m := phoneRe.FindString(compact)
	if m == "" {
		return "", false
	}
	return "+91-" + m, true
}

var ageRe = regexp.MustCompile(`\b(1[89]|[2-9]\d)\b`)

// ParseAge finds an age between 18 and 99.
func ParseAge(text string) (int, bool) {
	m := ageRe.FindString(text)
	if m == "" {
		return 0, false
	}
	age, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return age, true
}

var panRe = regexp.MustCompile(`[A-Z]{5}[0-9]{4}[A-Z]`)

// ParsePAN finds a PAN in text, matching case-insensitively.
func ParsePAN(text string) (string, bool) {
	m := panRe.FindString(strings.ToUpper(text))
	return m, m != ""
}

// DisplayName returns the first name, or "there" when the name is empty or a greeting.
func DisplayName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 || slices.Contains(nameGreetings, strings.ToLower(fields[0])) {
		return "there"
	}
	return fields[0]
}

// NameFromEmail derives a display name from an email local part ("rahul.sharma@x" -> "Rahul Sharma").
func NameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return "Friend"
	}
	return titleCase(strings.ReplaceAll(local, ".", " "))
}

func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		runes := []rune(strings.ToLower(f))
		runes[0] = unicode.ToUpper(runes[0])
		fields[i] = string(runes)
	}
	return strings.Join(fields, " ")
}
