package flow

import (
	"context"
	"fmt"

	"github.com/aretw0/lendflow/internal/signal"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
)

// Welcome produces the opening message for a freshly created session and logs it.
func (m *Machine) Welcome(_ context.Context, s *domain.Session) domain.Reply {
	name := s.DisplayName()
	var text string
	switch {
	case s.UserKind == domain.UserKnown:
		text = fmt.Sprintf("Hi %s! Welcome back to %s 🙂\n\nI'm %s, your loan assistant. Based on your profile, you're likely eligible for up to %s.\n\nHow can I help you today? Are you looking for a loan, or just exploring your options?",
			name, m.brand.Company, m.brand.Assistant, rupees(s.Profile.PreApprovedLimit))
	case s.UserKind == domain.UserGuest:
		text = fmt.Sprintf("Hi there! Welcome to %s.\n\nI'm %s, your loan assistant. I'm here to help you explore your loan options.\n\nBefore we get started, could you tell me your name?",
			m.brand.Company, m.brand.Assistant)
	case s.Stage == domain.StageOnboarding:
		text = fmt.Sprintf("Hi %s! Welcome to %s.\n\nI'm %s, your loan assistant. I can see you've logged in - great!\n\nTo help you better, I just need a couple of quick details:\n- What's your phone number?\n- And your age?\n\nThis helps me give you more accurate options.",
			name, m.brand.Company, m.brand.Assistant)
	default:
		text = fmt.Sprintf("Hi %s! Welcome to %s.\n\nI'm %s, your loan assistant. How can I help you today?\n\nAre you looking for a loan, or would you like to check your eligibility first?",
			name, m.brand.Company, m.brand.Assistant)
	}
	s.AppendLog(domain.SpeakerAssistant, text, m.now())
	return domain.ReplyFor(s, text)
}

// master owns the conversational stages before an amount is on the table.
func (m *Machine) master(ctx context.Context, t *turn) outcome {
	s := t.session
	switch s.Stage {
	case domain.StageOnboarding:
		return m.onboard(t)
	case domain.StageGreeting:
		return m.greet(t)
	case domain.StageDiscovery:
		return m.discover(t)
	case domain.StagePersuasion:
		return m.persuade(ctx, t)
	case domain.StageOfferPresentation:
		return outcome{stage: s.Stage, handler: domain.HandlerSales, chain: true}
	}
	if owner := ownerOf(s.Stage); owner != domain.HandlerMaster {
		return outcome{stage: s.Stage, handler: owner, chain: true}
	}
	return outcome{stage: domain.StageDiscovery, handler: domain.HandlerMaster, text: m.askForAmount(s)}
}

// onboard collects name, phone and age in that order. A failed answer
// re-asks the same step; only a valid answer advances.
func (m *Machine) onboard(t *turn) outcome {
	s := t.session
	switch s.OnboardingStep {
	case domain.OnboardingName:
		if signal.IsNameGreeting(t.text) {
			return stay(s, "Nice to meet you! What's your name?")
		}
		name, ok := signal.ParseName(t.text)
		if !ok {
			return stay(s, "I didn't catch that. What's your name?")
		}
		s.Profile.Name = name
		return m.nextOnboardingStep(s, fmt.Sprintf("Nice to meet you, %s!", signal.DisplayName(name)))
	case domain.OnboardingPhone:
		phone, ok := signal.ParsePhone(t.text)
		if !ok {
			return stay(s, "Please enter a valid 10-digit mobile number (e.g., 9876543210)")
		}
		s.Profile.Phone = phone
		return m.nextOnboardingStep(s, "Got it! ✅")
	case domain.OnboardingAge:
		age, ok := signal.ParseAge(t.text)
		if !ok {
			return stay(s, "Please enter your age (must be 18 or older).")
		}
		s.Profile.Age = age
		return m.nextOnboardingStep(s, "")
	}
	return outcome{
		stage:   domain.StageGreeting,
		handler: domain.HandlerMaster,
		text:    fmt.Sprintf("Thanks! How can I help you today, %s?", s.DisplayName()),
	}
}

// nextOnboardingStep moves to the first step still missing, skipping ones the
// profile already has, or finishes onboarding. ack opens the question.
func (m *Machine) nextOnboardingStep(s *domain.Session, ack string) outcome {
	var question string
	switch {
	case s.Profile.Phone == "":
		s.OnboardingStep = domain.OnboardingPhone
		question = "Could you share your phone number? (10-digit mobile number)"
	case s.Profile.Age == 0:
		s.OnboardingStep = domain.OnboardingAge
		question = "What's your age?"
	default:
		return outcome{
			stage:   domain.StageGreeting,
			handler: domain.HandlerMaster,
			text:    fmt.Sprintf("Great, %s! You're all set.\n\nHow can I help you today? Are you looking for a loan?", s.DisplayName()),
		}
	}
	if ack != "" {
		question = ack + "\n\n" + question
	}
	return stay(s, question)
}

func (m *Machine) greet(t *turn) outcome {
	s := t.session
	name := s.DisplayName()
	switch {
	case t.facts.Intent.Positive():
		return outcome{stage: domain.StageDiscovery, handler: domain.HandlerMaster, text: m.askForAmount(s)}
	case t.facts.Purpose != domain.PurposeNone:
		return m.explainPurpose(s, t.facts.Purpose)
	case t.facts.Intent == domain.IntentGreeting:
		return stay(s, fmt.Sprintf("Hi %s! I'm %s, your loan assistant.\n\nHow can I help you today? Are you looking for a loan?", name, m.brand.Assistant))
	}
	return outcome{
		stage:   domain.StageDiscovery,
		handler: domain.HandlerMaster,
		text:    fmt.Sprintf("Hi %s! What can I help you with today?\n\nAre you looking for a personal loan, or would you like to know more about your options?", name),
	}
}

func (m *Machine) discover(t *turn) outcome {
	s := t.session
	switch {
	case t.facts.Intent.Positive():
		return stay(s, m.askForAmount(s))
	case t.facts.Purpose != domain.PurposeNone:
		return m.explainPurpose(s, t.facts.Purpose)
	case t.facts.Intent == domain.IntentQuestion:
		return stay(s, fmt.Sprintf("Sure, %s! I can help with:\n- EMI calculations\n- Interest rates (typically 10.5%% - 14%%)\n- Documents needed\n- Approval timeline\n\nWhat would you like to know? Or just tell me how much you need.", s.DisplayName()))
	}
	return stay(s, m.askForAmount(s))
}

func (m *Machine) persuade(ctx context.Context, t *turn) outcome {
	s := t.session
	name := s.DisplayName()
	switch t.facts.Intent {
	case domain.IntentHesitation, domain.IntentDecline:
		concern := signal.ClassifyConcern(t.text)
		text := m.say(ctx, t, ports.Scenario{
			Handler:     domain.HandlerMaster,
			Kind:        "concern_" + string(concern),
			Tone:        ports.ToneConversational,
			Facts:       map[string]any{"concern": string(concern)},
			Instruction: "The customer is hesitating. Acknowledge the concern, give helpful context and make clear there is no pressure.",
		}, concernText(name, concern))
		return stay(s, text)
	case domain.IntentQuestion:
		return stay(s, "Of course! What would you like to know?\n\nI can explain interest rates, EMI calculations, documents needed, or the approval process.")
	}
	return outcome{stage: domain.StageOfferPresentation, handler: domain.HandlerSales, text: m.askForAmount(s)}
}

func concernText(name string, c signal.Concern) string {
	switch c {
	case signal.ConcernRate:
		return fmt.Sprintf("That's a fair concern, %s. Interest rates are definitely something to think about carefully.\n\nOur rates typically range from 10.5%% to 14%%, depending on your credit profile. For context:\n- Credit cards charge 36-42%% annually\n- Many NBFCs charge 14-18%%\n\nA few things that might help:\n- You can prepay anytime without penalty, which reduces total interest\n- Shorter tenure = less total interest paid\n\nWould it help if I showed you the exact numbers for a specific amount? That way you can see the actual cost.", name)
	case signal.ConcernTiming:
		return fmt.Sprintf("Of course, %s. Take your time - this is an important decision.\n\nIf it helps, I can send you a summary of what we discussed. You can review it at your own pace and come back whenever you're ready.\n\nIs there anything specific you'd like me to clarify before you go?", name)
	case signal.ConcernPaperwork:
		return "I get it - paperwork can be a hassle.\n\nThe good news is we've kept it pretty simple:\n- Aadhaar card (photo)\n- PAN card\n- Salary slip (only if you're applying for more than your pre-approved amount)\n\nYou can upload these right here in the chat. Most people finish in a few minutes.\n\nWould you like to proceed, or do you have other questions first?"
	}
	return fmt.Sprintf("I hear you, %s.\n\nIs there something specific on your mind? I'm happy to address any concerns or questions you have - no pressure at all.", name)
}

func (m *Machine) askForAmount(s *domain.Session) string {
	name := s.DisplayName()
	if s.Profile.PreApprovedLimit.IsPositive() {
		return fmt.Sprintf("Great, %s! How much are you looking for?\n\nBased on your profile, you're likely eligible for up to %s.", name, rupees(s.Profile.PreApprovedLimit))
	}
	return fmt.Sprintf("Sure, %s! How much are you looking for?\n\nJust give me a number and I'll show you what the EMI would look like.", name)
}

func (m *Machine) explainPurpose(s *domain.Session, p domain.Purpose) outcome {
	if s.Loan != nil {
		s.Loan.Purpose = p
	}
	name := s.DisplayName()
	var text string
	switch p {
	case domain.PurposeHome:
		text = fmt.Sprintf("Home-related expenses - that's a big step, %s!\n\nFor property purchase, a home loan usually makes sense (lower rates, longer tenure).\n\nFor down payment, registration, or interiors, a personal loan can be quicker:\n- Faster approval (days, not weeks)\n- Less paperwork\n\nWhat specifically are you looking to cover? Or tell me the amount you need.", name)
	case domain.PurposeCar:
		text = fmt.Sprintf("A car - nice choice, %s!\n\nYou have options:\n- **Car loan**: Lower rate, but bank holds the car as collateral\n- **Personal loan**: Slightly higher rate, but you own the car outright\n\nHow much are you looking for?", name)
	case domain.PurposeWedding:
		text = fmt.Sprintf("Congratulations on the upcoming wedding, %s! 🙂\n\nPersonal loans work well for weddings - use it for anything without justifying expenses.\n\nHow much do you need?", name)
	case domain.PurposeEducation:
		text = fmt.Sprintf("Education - great investment, %s!\n\nPersonal loans are flexible - use for any course, plus living expenses.\n\nHow much are you looking for?", name)
	case domain.PurposeMedical:
		text = fmt.Sprintf("I understand, %s. Let me help you quickly.\n\nPersonal loans work well for medical expenses - quick approval, use at any hospital.\n\nHow much do you need?", name)
	case domain.PurposeBusiness:
		text = fmt.Sprintf("Business funding - exciting, %s!\n\nPersonal loans are faster than business loans - based on your profile, less paperwork.\n\nHow much are you thinking?", name)
	default:
		text = m.askForAmount(s)
	}
	return outcome{stage: domain.StagePersuasion, handler: domain.HandlerMaster, text: text}
}
