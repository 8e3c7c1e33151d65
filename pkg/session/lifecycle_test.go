package session_test

import (
	"testing"
	"time"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBegin(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	rahul := &domain.Customer{
		ID: "cust_001", Name: "Rahul Sharma", Email: "rahul.sharma@email.com",
		Phone: "+91-9876543210", Age: 32, CreditScore: 782,
		PreApprovedLimit: decimal.NewFromInt(500000), KYCVerified: true,
	}

	tests := []struct {
		name      string
		visitor   session.Visitor
		wantKind  domain.UserKind
		wantStage domain.Stage
		wantStep  domain.OnboardingStep
		wantName  string
	}{
		{"Guest", session.Visitor{}, domain.UserGuest, domain.StageOnboarding, domain.OnboardingName, ""},
		{"Known Customer", session.Visitor{Customer: rahul}, domain.UserKnown, domain.StageGreeting, domain.OnboardingNone, "Rahul Sharma"},
		{"Registered Missing Phone", session.Visitor{Email: "meera.k@mail.com"}, domain.UserRegistered, domain.StageOnboarding, domain.OnboardingPhone, "Meera K"},
		{"Registered Missing Age", session.Visitor{Email: "x@mail.com", Name: "Xavier", Phone: "+91-9000000000"}, domain.UserRegistered, domain.StageOnboarding, domain.OnboardingAge, "Xavier"},
		{"Returning Complete", session.Visitor{Email: "x@mail.com", Name: "Xavier", Phone: "+91-9000000000", Age: 40}, domain.UserReturning, domain.StageGreeting, domain.OnboardingNone, "Xavier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := session.Begin("s-1", tt.visitor, now)
			assert.Equal(t, tt.wantKind, s.UserKind)
			assert.Equal(t, tt.wantStage, s.Stage)
			assert.Equal(t, tt.wantStep, s.OnboardingStep)
			assert.Equal(t, tt.wantName, s.Profile.Name)
			assert.Equal(t, []domain.Stage{tt.wantStage}, s.History)
			assert.Equal(t, domain.HandlerMaster, s.Handler)
			assert.Equal(t, domain.ConversationActive, s.Status)
			assert.Equal(t, now, s.CreatedAt)
		})
	}
}

func TestBegin_KnownCustomerProfile(t *testing.T) {
	c := &domain.Customer{ID: "cust_002", Name: "Priya Patel", Phone: "+91-9876543211", Age: 28, PreApprovedLimit: decimal.NewFromInt(750000)}
	s := session.Begin("s-2", session.Visitor{Customer: c}, time.Now())
	assert.Equal(t, "cust_002", s.CustomerID)
	assert.True(t, s.Profile.PreApprovedLimit.Equal(decimal.NewFromInt(750000)))
}
