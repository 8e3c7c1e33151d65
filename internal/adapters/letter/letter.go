// Package letter writes sanction letters as markdown files, with the full
// repayment schedule attached.
package letter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/internal/offer"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCompany heads every letter unless overridden.
const DefaultCompany = "NBFC Finance Limited"

// disbursementDelay is how long after issue the money is paid out.
const disbursementDelay = 48 * time.Hour

var safeID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Generator implements ports.DocumentGenerator.
type Generator struct {
	dir     string
	baseURL string
	company string
	logger  *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithBaseURL makes references URLs under base instead of file paths.
func WithBaseURL(base string) Option {
	return func(g *Generator) { g.baseURL = strings.TrimSuffix(base, "/") }
}

// WithCompany sets the lender name printed on letters.
func WithCompany(name string) Option {
	return func(g *Generator) {
		if name != "" {
			g.company = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Generator writing into dir.
func New(dir string, opts ...Option) *Generator {
	g := &Generator{dir: dir, company: DefaultCompany, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Filename is the file a loan's letter is written to.
func Filename(loanID string) string {
	return "sanction_" + loanID + ".md"
}

// GenerateApprovalDocument renders and writes the letter, returning its reference.
func (g *Generator) GenerateApprovalDocument(ctx context.Context, req ports.ApprovalRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !safeID.MatchString(req.LoanID) {
		return "", fmt.Errorf("invalid loan id %q", req.LoanID)
	}

	var buf bytes.Buffer
	if err := Render(&buf, g.company, req); err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create letters directory: %w", err)
	}
	name := Filename(req.LoanID)
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write sanction letter: %w", err)
	}
	g.logger.Info("Sanction letter written", "loan_id", req.LoanID, "path", path)

	if g.baseURL != "" {
		return g.baseURL + "/" + name, nil
	}
	return path, nil
}

type row struct {
	Period    int
	DueDate   string
	Principal string
	Interest  string
	Total     string
	Balance   string
}

type view struct {
	Company       string
	LoanID        string
	Date          string
	Disbursement  string
	Name          string
	FirstName     string
	Address       string
	Amount        string
	Rate          string
	Tenure        int
	EMI           string
	TotalInterest string
	Schedule      []row
}

var letterTmpl = template.Must(template.New("letter").Parse(`# {{.Company}}

## Loan Sanction Letter

**Date:** {{.Date}}
**Reference No:** {{.LoanID}}

To,
**{{.Name}}**
{{.Address}}

Dear {{.FirstName}},

We are pleased to inform you that your application for a Personal Loan has been **APPROVED** by {{.Company}}. The details of your loan are as follows:

| | |
|---|---|
| Loan Amount | {{.Amount}} |
| Interest Rate | {{.Rate}}% per annum |
| Loan Tenure | {{.Tenure}} months |
| EMI Amount | {{.EMI}} |
| Total Interest | {{.TotalInterest}} |
| Processing Fee | ₹0 (Waived) |
| Disbursement Date | {{.Disbursement}} |

### Terms and Conditions

1. The loan will be disbursed within 2 working days upon submission of required documents.
2. EMI payments must be made on or before the 5th of every month.
3. Prepayment of the loan is allowed without any penalty after 6 months.
4. Late payment charges of 2% per month will be applicable on overdue EMIs.
5. This sanction is valid for 30 days from the date of this letter.

### Repayment Schedule

| # | Due date | Principal | Interest | EMI | Balance |
|---|---|---|---|---|---|
{{range .Schedule}}| {{.Period}} | {{.DueDate}} | {{.Principal}} | {{.Interest}} | {{.Total}} | {{.Balance}} |
{{end}}
Congratulations on your loan approval! We look forward to serving you.

Sincerely,

**Authorized Signatory**
{{.Company}}
`))

var printer = message.NewPrinter(language.English)

func rupees(d decimal.Decimal) string {
	return "₹" + printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// Render writes the letter for req.
func Render(w io.Writer, company string, req ports.ApprovalRequest) error {
	terms := offer.Terms{Amount: req.Amount, Rate: req.Rate, TenureMonths: req.TenureMonths, EMI: req.EMI}
	schedule := offer.Schedule(terms, req.IssuedAt)

	v := view{
		Company:       company,
		LoanID:        req.LoanID,
		Date:          req.IssuedAt.Format("January 02, 2006"),
		Disbursement:  req.IssuedAt.Add(disbursementDelay).Format("January 02, 2006"),
		Name:          req.CustomerName,
		FirstName:     strings.SplitN(req.CustomerName, " ", 2)[0],
		Address:       req.Address,
		Amount:        rupees(req.Amount),
		Rate:          req.Rate.Round(2).String(),
		Tenure:        req.TenureMonths,
		EMI:           rupees(req.EMI),
		TotalInterest: rupees(offer.TotalInterest(schedule)),
	}
	for _, in := range schedule {
		v.Schedule = append(v.Schedule, row{
			Period:    in.Period,
			DueDate:   in.DueDate.Format("2006-01-02"),
			Principal: rupees(in.Principal),
			Interest:  rupees(in.Interest),
			Total:     rupees(in.Total),
			Balance:   rupees(in.RemainingBalance),
		})
	}
	if err := letterTmpl.Execute(w, v); err != nil {
		return fmt.Errorf("failed to render sanction letter: %w", err)
	}
	return nil
}

var _ ports.DocumentGenerator = (*Generator)(nil)
