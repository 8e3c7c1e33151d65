// Package crm is a customer directory backed by a YAML fixture. It serves
// both directory lookups at session start and KYC checks during
// verification.
package crm

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"gopkg.in/yaml.v3"
)

//go:embed customers.yaml
var defaultFixture []byte

type fixture struct {
	Customers []domain.Customer `yaml:"customers"`
}

// Directory holds the customer records in memory. It is read-only after
// construction and safe for concurrent use.
type Directory struct {
	customers []domain.Customer
	byID      map[string]int
	byEmail   map[string]int
	byPhone   map[string]int
	latency   time.Duration
	logger    *slog.Logger
}

// Option configures a Directory.
type Option func(*Directory)

// WithLatency delays every lookup, imitating a remote CRM.
func WithLatency(d time.Duration) Option {
	return func(dir *Directory) { dir.latency = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(dir *Directory) {
		if l != nil {
			dir.logger = l
		}
	}
}

// Default returns the directory of the embedded demo customers.
func Default(opts ...Option) *Directory {
	dir, err := Load(bytes.NewReader(defaultFixture), opts...)
	if err != nil {
		panic(fmt.Sprintf("crm: embedded fixture: %v", err))
	}
	return dir
}

// LoadFile reads a fixture file. An empty path yields the embedded default.
func LoadFile(path string, opts ...Option) (*Directory, error) {
	if path == "" {
		return Default(opts...), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open customer fixture: %w", err)
	}
	defer f.Close()
	return Load(f, opts...)
}

// Load parses a YAML fixture with a top-level customers list.
func Load(r io.Reader, opts ...Option) (*Directory, error) {
	var fx fixture
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil {
		return nil, fmt.Errorf("failed to decode customer fixture: %w", err)
	}

	dir := &Directory{
		customers: fx.Customers,
		byID:      make(map[string]int, len(fx.Customers)),
		byEmail:   make(map[string]int, len(fx.Customers)),
		byPhone:   make(map[string]int, len(fx.Customers)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(dir)
	}
	for i, c := range fx.Customers {
		if c.ID == "" {
			return nil, fmt.Errorf("customer %d has no id", i)
		}
		if _, dup := dir.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate customer id %q", c.ID)
		}
		dir.byID[c.ID] = i
		if c.Email != "" {
			dir.byEmail[strings.ToLower(c.Email)] = i
		}
		if c.Phone != "" {
			dir.byPhone[c.Phone] = i
		}
	}
	return dir, nil
}

// Customers returns every record, in fixture order.
func (d *Directory) Customers() []domain.Customer {
	out := make([]domain.Customer, len(d.customers))
	copy(out, d.customers)
	return out
}

// Lookup finds a customer by id or email.
func (d *Directory) Lookup(ctx context.Context, key string) (domain.Customer, error) {
	if err := d.wait(ctx); err != nil {
		return domain.Customer{}, err
	}
	if i, ok := d.byID[key]; ok {
		return d.customers[i], nil
	}
	if i, ok := d.byEmail[strings.ToLower(key)]; ok {
		return d.customers[i], nil
	}
	return domain.Customer{}, fmt.Errorf("%w: %q", domain.ErrCustomerNotFound, key)
}

// LookupKYC reports the KYC record for an identity, trying id, email and
// phone in turn. An unknown identity is not an error.
func (d *Directory) LookupKYC(ctx context.Context, id ports.Identity) (ports.KYCResult, error) {
	if err := d.wait(ctx); err != nil {
		return ports.KYCResult{}, err
	}
	c, ok := d.find(id)
	if !ok {
		d.logger.Debug("KYC record not found", "customer_id", id.CustomerID)
		return ports.KYCResult{}, nil
	}
	return ports.KYCResult{
		Found:    true,
		Verified: c.KYCVerified,
		Phone:    c.Phone,
		Address:  c.Address,
		City:     c.City,
	}, nil
}

func (d *Directory) find(id ports.Identity) (domain.Customer, bool) {
	if i, ok := d.byID[id.CustomerID]; ok {
		return d.customers[i], true
	}
	for _, email := range []string{id.Email, id.CustomerID} {
		if i, ok := d.byEmail[strings.ToLower(email)]; ok && email != "" {
			return d.customers[i], true
		}
	}
	if i, ok := d.byPhone[id.Phone]; ok && id.Phone != "" {
		return d.customers[i], true
	}
	return domain.Customer{}, false
}

func (d *Directory) wait(ctx context.Context) error {
	if d.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var (
	_ ports.CustomerDirectory = (*Directory)(nil)
	_ ports.KYCService        = (*Directory)(nil)
)
