package session

import (
	"time"

	"github.com/aretw0/lendflow/internal/signal"
	"github.com/aretw0/lendflow/pkg/domain"
)

// Visitor is who opens a conversation. A zero Visitor is a guest.
type Visitor struct {
	// Customer is set when the visitor was found in the customer directory.
	Customer *domain.Customer
	// Email, Name, Phone and Age describe a logged-in user outside the directory.
	Email string
	Name  string
	Phone string
	Age   int
}

// Begin creates a session for visitor and positions it at its first stage.
// Guests start onboarding at the name step; logged-in users missing phone or
// age start at the first missing step; complete profiles go straight to greeting.
func Begin(id string, visitor Visitor, now time.Time) *domain.Session {
	s := domain.NewSession(id, domain.StageGreeting, now)

	switch {
	case visitor.Customer != nil:
		s.UserKind = domain.UserKnown
		s.CustomerID = visitor.Customer.ID
		s.Email = visitor.Customer.Email
		s.Profile = visitor.Customer.Profile()
	case visitor.Email != "":
		s.UserKind = domain.UserReturning
		s.CustomerID = visitor.Email
		s.Email = visitor.Email
		s.Profile.Name = visitor.Name
		if s.Profile.Name == "" {
			s.Profile.Name = signal.NameFromEmail(visitor.Email)
		}
		s.Profile.Phone = visitor.Phone
		s.Profile.Age = visitor.Age
	default:
		s.UserKind = domain.UserGuest
	}

	step := firstMissingStep(s)
	if step == domain.OnboardingNone {
		return s
	}
	if s.UserKind == domain.UserReturning {
		s.UserKind = domain.UserRegistered
	}
	s.Stage = domain.StageOnboarding
	s.History = []domain.Stage{domain.StageOnboarding}
	s.OnboardingStep = step
	return s
}

func firstMissingStep(s *domain.Session) domain.OnboardingStep {
	switch {
	case s.UserKind == domain.UserGuest || s.Profile.Name == "":
		return domain.OnboardingName
	case s.Profile.Phone == "":
		return domain.OnboardingPhone
	case s.Profile.Age == 0:
		return domain.OnboardingAge
	}
	return domain.OnboardingNone
}
