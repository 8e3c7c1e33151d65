// Package graph draws the conversation stages as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/lendflow/pkg/domain"
)

// Edge is one transition the state machine can take.
type Edge struct {
	From, To domain.Stage
	Label    string
	// Fallback marks recovery paths, drawn dotted.
	Fallback bool
}

// Transitions is the stage transition table.
var Transitions = []Edge{
	{From: domain.StageOnboarding, To: domain.StageGreeting, Label: "profile complete"},
	{From: domain.StageGreeting, To: domain.StageDiscovery, Label: "no amount"},
	{From: domain.StageGreeting, To: domain.StageOfferPresentation, Label: "amount given"},
	{From: domain.StageDiscovery, To: domain.StagePersuasion, Label: "hesitation"},
	{From: domain.StageDiscovery, To: domain.StageOfferPresentation, Label: "amount given"},
	{From: domain.StagePersuasion, To: domain.StageOfferPresentation, Label: "amount given"},
	{From: domain.StageOfferPresentation, To: domain.StageVerification, Label: "agreed"},
	{From: domain.StageOfferPresentation, To: domain.StageDocumentCollection, Label: "agreed, KYC done"},
	{From: domain.StageVerification, To: domain.StageDocumentCollection, Label: "documents required"},
	{From: domain.StageVerification, To: domain.StageUnderwriting, Label: "no documents"},
	{From: domain.StageDocumentCollection, To: domain.StageUnderwriting, Label: "all uploaded"},
	{From: domain.StageUnderwriting, To: domain.StageSanction, Label: "approved"},
	{From: domain.StageUnderwriting, To: domain.StageDocumentCollection, Label: "salary slip needed"},
	{From: domain.StageUnderwriting, To: domain.StageOfferPresentation, Label: "rejected, alternative"},
	{From: domain.StageSanction, To: domain.StageCompleted, Label: "letter issued"},
	{From: domain.StageUnderwriting, To: domain.StageDiscovery, Label: "amount missing", Fallback: true},
	{From: domain.StageSanction, To: domain.StageDiscovery, Label: "amount missing", Fallback: true},
}

// Overlay contains session state to highlight on the graph.
type Overlay struct {
	Visited []domain.Stage
	Current domain.Stage
}

// OverlayFor highlights the stages a session went through.
func OverlayFor(s *domain.Session) *Overlay {
	return &Overlay{Visited: s.History, Current: s.Stage}
}

// GenerateMermaid produces a Mermaid flowchart of every stage and transition.
// Shapes:
// - Entry (onboarding, greeting): ((Circle))
// - Collaborator calls (verification, underwriting, sanction): [[Subroutine]]
// - Waiting on uploads: [/Parallelogram/]
// - Terminal: (((Double circle)))
// - Default: [Rectangle]
func GenerateMermaid(overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, stage := range domain.Stages {
		opener, closer := shape(stage)
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", stage, opener, stage.Describe(), closer)
	}
	for _, e := range Transitions {
		arrow := fmt.Sprintf("-- \"%s\" -->", escape(e.Label))
		if e.Fallback {
			arrow = fmt.Sprintf("-. \"%s\" .->", escape(e.Label))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", e.From, arrow, e.To)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[domain.Stage]bool)
		for _, stage := range overlay.Visited {
			if stage.Valid() && !seen[stage] && stage != overlay.Current {
				seen[stage] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", stage)
			}
		}
		if overlay.Current.Valid() {
			fmt.Fprintf(&sb, "    class %s current;\n", overlay.Current)
		}
	}
	return sb.String()
}

func shape(s domain.Stage) (string, string) {
	switch s {
	case domain.StageOnboarding, domain.StageGreeting:
		return "((", "))"
	case domain.StageVerification, domain.StageUnderwriting, domain.StageSanction:
		return "[[", "]]"
	case domain.StageDocumentCollection:
		return "[/", "/]"
	case domain.StageCompleted:
		return "(((", ")))"
	}
	return "[", "]"
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}
