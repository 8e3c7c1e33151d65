package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

// DefaultPIIKeys are the session fields masked when no patterns are configured.
var DefaultPIIKeys = []string{`^pan_number$`, `^aadhaar_number$`}

// DefaultPIIValues match identity numbers that users type into the chat.
var DefaultPIIValues = []string{
	`\b[A-Z]{5}[0-9]{4}[A-Z]\b`,
	`\b\d{4}\s?\d{4}\s?\d{4}\b`,
}

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of JSON keys
// matching the patterns before the session reaches the store.
func NewPIIMiddleware(patternStrings []string) Middleware {
	if len(patternStrings) == 0 {
		patternStrings = DefaultPIIKeys
	}
	patterns := compile(patternStrings)
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func compile(patternStrings []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return patterns
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	masked, err := m.mask(session, false)
	if err != nil {
		// A typed field (decimal, number) cannot hold the mask; drop it instead.
		masked, err = m.mask(session, true)
	}
	if err != nil {
		return err
	}
	return m.next.Save(ctx, sessionID, masked)
}

// mask works on the JSON form so the caller's session is untouched.
func (m *piiMiddleware) mask(session *domain.Session, drop bool) (*domain.Session, error) {
	raw, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	maskMap(tree, m.patterns, drop)

	raw, err = json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal masked session: %w", err)
	}
	var masked domain.Session
	if err := json.Unmarshal(raw, &masked); err != nil {
		return nil, fmt.Errorf("failed to rebuild masked session: %w", err)
	}
	return &masked, nil
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// maskMap masks string values under matching keys. Other values, and all
// values when drop is set, are removed.
func maskMap(m map[string]any, patterns []*regexp.Regexp, drop bool) {
	for k, v := range m {
		if matchesAny(k, patterns) {
			if _, ok := v.(string); ok && !drop {
				m[k] = Mask
			} else {
				delete(m, k)
			}
			continue
		}
		maskValue(v, patterns, drop)
	}
}

func maskValue(v any, patterns []*regexp.Regexp, drop bool) {
	switch t := v.(type) {
	case map[string]any:
		maskMap(t, patterns, drop)
	case []any:
		for _, item := range t {
			maskValue(item, patterns, drop)
		}
	}
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

type redactingLog struct {
	next     ports.ConversationLog
	patterns []*regexp.Regexp
}

// NewLogRedactor creates a log middleware that replaces substrings matching
// the patterns in every appended line.
func NewLogRedactor(patternStrings []string) LogMiddleware {
	if len(patternStrings) == 0 {
		patternStrings = DefaultPIIValues
	}
	patterns := compile(patternStrings)
	return func(next ports.ConversationLog) ports.ConversationLog {
		return &redactingLog{next: next, patterns: patterns}
	}
}

func (r *redactingLog) Append(ctx context.Context, sessionID string, entry domain.LogEntry) error {
	entry.Text = Redact(entry.Text, r.patterns)
	return r.next.Append(ctx, sessionID, entry)
}

func (r *redactingLog) History(ctx context.Context, sessionID string) ([]domain.LogEntry, error) {
	return r.next.History(ctx, sessionID)
}

// Redact replaces every match of the patterns in text.
func Redact(text string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		text = p.ReplaceAllString(text, Mask)
	}
	return text
}
