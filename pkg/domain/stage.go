package domain

// Stage is a step of the loan-intake conversation.
type Stage string

const (
	StageOnboarding         Stage = "onboarding"
	StageGreeting           Stage = "greeting"
	StageDiscovery          Stage = "discovery"
	StagePersuasion         Stage = "persuasion"
	StageOfferPresentation  Stage = "offer_presentation"
	StageVerification       Stage = "verification"
	StageDocumentCollection Stage = "document_collection"
	StageUnderwriting       Stage = "underwriting"
	StageSanction           Stage = "sanction"
	StageCompleted          Stage = "completed"
)

// Stages lists every stage in conversation order.
var Stages = []Stage{
	StageOnboarding,
	StageGreeting,
	StageDiscovery,
	StagePersuasion,
	StageOfferPresentation,
	StageVerification,
	StageDocumentCollection,
	StageUnderwriting,
	StageSanction,
	StageCompleted,
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	for _, known := range Stages {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions leave s.
func (s Stage) Terminal() bool {
	return s == StageCompleted
}

// Describe returns a human readable label for the stage.
func (s Stage) Describe() string {
	switch s {
	case StageOnboarding:
		return "Getting To Know You"
	case StageGreeting:
		return "Welcome & Introduction"
	case StageDiscovery:
		return "Understanding Your Needs"
	case StagePersuasion:
		return "Exploring Options"
	case StageOfferPresentation:
		return "Presenting Your Offer"
	case StageVerification:
		return "Verifying Your Details"
	case StageDocumentCollection:
		return "Collecting Documents"
	case StageUnderwriting:
		return "Assessing Your Application"
	case StageSanction:
		return "Finalizing Approval"
	case StageCompleted:
		return "Thank You!"
	}
	return "Processing..."
}

// Handler identifies the component that owns the next turn.
// The set is closed; routing never looks handlers up by free-form name.
type Handler string

const (
	HandlerMaster       Handler = "master"
	HandlerSales        Handler = "sales"
	HandlerVerification Handler = "verification"
	HandlerDocument     Handler = "document"
	HandlerUnderwriting Handler = "underwriting"
	HandlerSanction     Handler = "sanction"
	HandlerCompleted    Handler = "completed"
)

// Handlers lists every handler tag.
var Handlers = []Handler{
	HandlerMaster,
	HandlerSales,
	HandlerVerification,
	HandlerDocument,
	HandlerUnderwriting,
	HandlerSanction,
	HandlerCompleted,
}

// Valid reports whether h is a known handler tag.
func (h Handler) Valid() bool {
	for _, known := range Handlers {
		if h == known {
			return true
		}
	}
	return false
}

// OnboardingStep is the sub-state used while Stage == StageOnboarding.
type OnboardingStep string

const (
	OnboardingNone  OnboardingStep = ""
	OnboardingName  OnboardingStep = "name"
	OnboardingPhone OnboardingStep = "phone"
	OnboardingAge   OnboardingStep = "age"
)

// ApplicationStatus tracks the loan application outcome.
type ApplicationStatus string

const (
	ApplicationPending          ApplicationStatus = "pending"
	ApplicationPreApproved      ApplicationStatus = "pre_approved"
	ApplicationNeedsDocuments   ApplicationStatus = "needs_documents"
	ApplicationNeedsNegotiation ApplicationStatus = "needs_negotiation"
	ApplicationUnderReview      ApplicationStatus = "under_review"
	ApplicationApproved         ApplicationStatus = "approved"
	ApplicationRejected         ApplicationStatus = "rejected"
)

// ConversationStatus is the lifecycle status of the conversation itself.
type ConversationStatus string

const (
	ConversationActive    ConversationStatus = "active"
	ConversationCompleted ConversationStatus = "completed"
	ConversationAbandoned ConversationStatus = "abandoned"
)

// UserKind describes who opened the session, which decides onboarding and the welcome.
type UserKind string

const (
	// UserGuest is an anonymous visitor; onboarding starts at the name step.
	UserGuest UserKind = "guest"
	// UserKnown is a customer found in the customer directory.
	UserKnown UserKind = "known"
	// UserRegistered is a logged-in user whose profile lacks phone or age.
	UserRegistered UserKind = "registered"
	// UserReturning is a logged-in user with a complete profile.
	UserReturning UserKind = "returning"
)
