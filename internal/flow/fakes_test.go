package flow_test

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/lendflow/internal/flow"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/aretw0/lendflow/pkg/session"
	"github.com/shopspring/decimal"
)

var errDown = errors.New("collaborator down")

type fakeComposer struct {
	text      string
	err       error
	scenarios []ports.Scenario
}

func (f *fakeComposer) Compose(_ context.Context, sc ports.Scenario) (string, error) {
	f.scenarios = append(f.scenarios, sc)
	return f.text, f.err
}

type fakeKYC struct {
	res   ports.KYCResult
	err   error
	calls int
}

func (f *fakeKYC) LookupKYC(context.Context, ports.Identity) (ports.KYCResult, error) {
	f.calls++
	return f.res, f.err
}

type fakeBureau struct {
	score   int
	err     error
	queries []ports.CreditQuery
}

func (f *fakeBureau) LookupCreditScore(_ context.Context, q ports.CreditQuery) (ports.CreditReport, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return ports.CreditReport{}, f.err
	}
	return ports.CreditReport{Success: true, Score: f.score, MaxScore: 900}, nil
}

type fakeGenerator struct {
	ref  string
	err  error
	reqs []ports.ApprovalRequest
}

func (f *fakeGenerator) GenerateApprovalDocument(_ context.Context, req ports.ApprovalRequest) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.ref, f.err
}

type fakeExtractor struct {
	fields map[domain.DocumentType]domain.DocumentFields
}

func (f *fakeExtractor) ExtractDocumentFields(_ context.Context, _ []byte, t domain.DocumentType) (domain.DocumentFields, error) {
	return f.fields[t], nil
}

var epoch = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type rig struct {
	kyc       *fakeKYC
	bureau    *fakeBureau
	generator *fakeGenerator
	extractor *fakeExtractor
	machine   *flow.Machine
}

func newRig(opts ...flow.Option) *rig {
	r := &rig{
		kyc:       &fakeKYC{res: ports.KYCResult{Found: true, Verified: true, Phone: "+91-9876543210", Address: "Andheri West, Mumbai"}},
		bureau:    &fakeBureau{score: 800},
		generator: &fakeGenerator{ref: "/letters/sanction_LOAN0001.md"},
		extractor: &fakeExtractor{fields: map[domain.DocumentType]domain.DocumentFields{}},
	}
	base := []flow.Option{
		flow.WithKYC(r.kyc),
		flow.WithCreditBureau(r.bureau),
		flow.WithDocumentGenerator(r.generator),
		flow.WithFieldExtractor(r.extractor),
		flow.WithClock(func() time.Time { return epoch }),
		flow.WithLoanIDs(func() string { return "LOAN0001" }),
	}
	r.machine = flow.New(append(base, opts...)...)
	return r
}

func rahul(score int) *domain.Session {
	return session.Begin("s-rahul", session.Visitor{Customer: &domain.Customer{
		ID:               "cust_001",
		Name:             "Rahul Sharma",
		Email:            "rahul.sharma@email.com",
		Phone:            "+91-9876543210",
		Age:              32,
		City:             "Mumbai",
		CreditScore:      score,
		PreApprovedLimit: decimal.NewFromInt(500000),
		MonthlySalary:    decimal.NewFromInt(75000),
		KYCVerified:      true,
	}}, epoch)
}

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
