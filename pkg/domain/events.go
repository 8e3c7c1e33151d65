package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStageEnter        EventType = "stage_enter"
	EventStageLeave        EventType = "stage_leave"
	EventCollaboratorCall  EventType = "collaborator_call"
	EventCollaboratorReply EventType = "collaborator_reply"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StageEvent represents entry into or exit from a stage.
type StageEvent struct {
	EventBase
	Stage   Stage   `json:"stage"`
	Handler Handler `json:"handler"`
}

// CollaboratorEvent represents a call to an external collaborator
// (composer, kyc, bureau, generator, extractor).
type CollaboratorEvent struct {
	EventBase
	Collaborator string        `json:"collaborator"`
	Stage        Stage         `json:"stage"`
	Duration     time.Duration `json:"duration,omitempty"`
	IsError      bool          `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for conversation observability.
type LifecycleHooks struct {
	OnStageEnter        func(context.Context, *StageEvent)
	OnStageLeave        func(context.Context, *StageEvent)
	OnCollaboratorCall  func(context.Context, *CollaboratorEvent)
	OnCollaboratorReply func(context.Context, *CollaboratorEvent)
}
