package crm_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lendflow/internal/adapters/crm"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	dir := crm.Default()
	customers := dir.Customers()
	require.Len(t, customers, 10)

	rahul := customers[0]
	assert.Equal(t, "cust_001", rahul.ID)
	assert.Equal(t, 782, rahul.CreditScore)
	assert.True(t, rahul.PreApprovedLimit.Equal(decimal.NewFromInt(500000)))
	assert.True(t, rahul.MonthlySalary.Equal(decimal.NewFromInt(85000)))
	assert.False(t, customers[5].KYCVerified, "Anjali's KYC is pending")
}

func TestLookup(t *testing.T) {
	dir := crm.Default()
	ctx := context.Background()

	tests := []struct {
		key    string
		wantID string
	}{
		{"cust_002", "cust_002"},
		{"priya.patel@email.com", "cust_002"},
		{"PRIYA.PATEL@EMAIL.COM", "cust_002"},
	}
	for _, tt := range tests {
		c, err := dir.Lookup(ctx, tt.key)
		require.NoError(t, err, tt.key)
		assert.Equal(t, tt.wantID, c.ID)
	}

	_, err := dir.Lookup(ctx, "nobody@nowhere.com")
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestLookupKYC(t *testing.T) {
	dir := crm.Default()
	ctx := context.Background()

	tests := []struct {
		name         string
		id           ports.Identity
		wantFound    bool
		wantVerified bool
	}{
		{"by id", ports.Identity{CustomerID: "cust_001"}, true, true},
		{"by email", ports.Identity{Email: "anjali.verma@email.com"}, true, false},
		{"by phone", ports.Identity{Phone: "+91-9876543219"}, true, true},
		{"unknown", ports.Identity{Email: "guest@mail.com", Phone: "+91-9000000000"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := dir.LookupKYC(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, res.Found)
			assert.Equal(t, tt.wantVerified, res.Verified)
			if tt.wantFound {
				assert.NotEmpty(t, res.Address)
			}
		})
	}
}

func TestLoad_RejectsDuplicates(t *testing.T) {
	_, err := crm.Load(strings.NewReader(`
customers:
  - id: a
    name: One
  - id: a
    name: Two
`))
	assert.Error(t, err)
}

func TestLatencyHonoursContext(t *testing.T) {
	dir := crm.Default(crm.WithLatency(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := dir.LookupKYC(ctx, ports.Identity{CustomerID: "cust_001"})
	assert.ErrorIs(t, err, context.Canceled)
}
