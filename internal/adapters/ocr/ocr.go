// Package ocr reads identity and income fields from the text layer of
// uploaded documents. Image-only files yield empty fields.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
)

// scanLimit bounds how much of a file is searched for text.
const scanLimit = 64 << 10

// Salaries outside this range are treated as misreads.
var (
	minSalary = decimal.NewFromInt(5000)
	maxSalary = decimal.NewFromInt(10000000)
)

var (
	aadhaarRe = regexp.MustCompile(`\b(\d{4}\s?\d{4}\s?\d{4})\b`)
	panRe     = regexp.MustCompile(`\b([A-Z]{5}[0-9]{4}[A-Z])\b`)
	dobRes    = []*regexp.Regexp{
		regexp.MustCompile(`(?i)DOB[:\s]*(\d{2}[/-]\d{2}[/-]\d{4})`),
		regexp.MustCompile(`(?i)Date of Birth[:\s]*(\d{2}[/-]\d{2}[/-]\d{4})`),
		regexp.MustCompile(`(\d{2}[/-]\d{2}[/-]\d{4})`),
	}
	nameRes = []*regexp.Regexp{
		regexp.MustCompile(`Name[: \t]*([A-Z][a-zA-Z ]+)`),
		regexp.MustCompile(`(?m)^([A-Z][a-zA-Z]+[ \t]+[A-Z][a-zA-Z]+)`),
	}
	addressRe = regexp.MustCompile(`(?is)Address[:\s]*(.+?)(?:\d{6}|\z)`)
	spacesRe  = regexp.MustCompile(`\s+`)

	salaryRes = []struct {
		re    *regexp.Regexp
		field string
	}{
		{regexp.MustCompile(`(?i)Net\s*(?:Pay|Salary)[:\s]*(?:Rs\.?|₹)?\s*([\d,]+)`), "net"},
		{regexp.MustCompile(`(?i)Gross\s*(?:Pay|Salary)[:\s]*(?:Rs\.?|₹)?\s*([\d,]+)`), "gross"},
		{regexp.MustCompile(`(?i)Total\s*(?:Earnings|Pay)[:\s]*(?:Rs\.?|₹)?\s*([\d,]+)`), "gross"},
		{regexp.MustCompile(`(?i)(?:Rs\.?|₹)\s*([\d,]+(?:\.\d{2})?)`), "any"},
	}
	employerRes = []*regexp.Regexp{
		regexp.MustCompile(`(?im)(?:Company|Employer|Organization)[: \t]*([A-Za-z &]+)`),
		regexp.MustCompile(`(?im)^([A-Z][A-Za-z &]+(?:Limited|Private|Inc|Corporation))`),
	}
	employeeRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Employee\s*Name[: \t]*([A-Za-z ]+)`),
		regexp.MustCompile(`(?i)(?:Employee|Name)[: \t]*([A-Za-z ]+)`),
		regexp.MustCompile(`(?:Mr\.|Ms\.|Mrs\.)\s*([A-Z][a-zA-Z ]+)`),
	}
)

// Extractor implements ports.FieldExtractor.
type Extractor struct {
	assumedSalary decimal.Decimal
	logger        *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithAssumedSalary is reported for salary slips whose salary cannot be read.
func WithAssumedSalary(d decimal.Decimal) Option {
	return func(e *Extractor) { e.assumedSalary = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractDocumentFields reads the fields a document type carries.
func (e *Extractor) ExtractDocumentFields(ctx context.Context, content []byte, docType domain.DocumentType) (domain.DocumentFields, error) {
	if err := ctx.Err(); err != nil {
		return domain.DocumentFields{}, err
	}
	text := textOf(content)

	raw := map[string]any{}
	var salary decimal.Decimal
	switch docType {
	case domain.DocumentAadhaar:
		if m := aadhaarRe.FindStringSubmatch(text); m != nil {
			n := strings.Join(strings.Fields(m[1]), "")
			raw["aadhaar_number"] = n[:4] + "-" + n[4:8] + "-" + n[8:]
		}
		put(raw, "dob", firstOf(dobRes, text))
		put(raw, "name", nameOf(nameRes, text))
		put(raw, "address", addressOf(text))
	case domain.DocumentPAN:
		if m := panRe.FindStringSubmatch(strings.ToUpper(text)); m != nil {
			raw["pan_number"] = m[1]
		}
		put(raw, "name", nameOf(nameRes, text))
		put(raw, "dob", firstOf(dobRes[2:], text))
	case domain.DocumentSalarySlip:
		salary = salaryOf(text)
		if salary.IsZero() {
			salary = e.assumedSalary
		}
		if m := firstOf(employerRes, text); len(m) > 3 {
			raw["employer_name"] = truncate(m, 50)
		}
		put(raw, "name", nameOf(employeeRes, text))
	case domain.DocumentBankStatement:
		put(raw, "name", nameOf(nameRes, text))
		put(raw, "address", addressOf(text))
	default:
		return domain.DocumentFields{}, fmt.Errorf("%w: %q", domain.ErrUnknownDocument, docType)
	}

	var fields domain.DocumentFields
	if err := mapstructure.Decode(raw, &fields); err != nil {
		return domain.DocumentFields{}, fmt.Errorf("failed to decode %s fields: %w", docType, err)
	}
	fields.MonthlySalary = salary
	e.logger.Debug("Document fields extracted", "document", docType, "fields", len(raw))
	return fields, nil
}

// textOf returns the printable prefix of a file's bytes.
func textOf(content []byte) string {
	if len(content) > scanLimit {
		content = content[:scanLimit]
	}
	return strings.ToValidUTF8(string(content), " ")
}

func put(raw map[string]any, key, value string) {
	if value != "" {
		raw[key] = value
	}
}

func firstOf(res []*regexp.Regexp, text string) string {
	for _, re := range res {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// nameOf returns the first candidate of plausible length.
func nameOf(res []*regexp.Regexp, text string) string {
	for _, re := range res {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if name := strings.TrimSpace(m[1]); len(name) > 3 && len(name) < 50 {
			return name
		}
	}
	return ""
}

func addressOf(text string) string {
	m := addressRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	addr := truncate(spacesRe.ReplaceAllString(strings.TrimSpace(m[1]), " "), 200)
	if len(addr) <= 10 {
		return ""
	}
	return addr
}

// salaryOf prefers net pay, then gross, then any rupee amount.
func salaryOf(text string) decimal.Decimal {
	found := map[string]decimal.Decimal{}
	for _, p := range salaryRes {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err != nil || amount.LessThanOrEqual(minSalary) || amount.GreaterThanOrEqual(maxSalary) {
			continue
		}
		if _, ok := found[p.field]; !ok {
			found[p.field] = amount
		}
	}
	for _, field := range []string{"net", "gross", "any"} {
		if v, ok := found[field]; ok {
			return v
		}
	}
	return decimal.Zero
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

var _ ports.FieldExtractor = (*Extractor)(nil)
