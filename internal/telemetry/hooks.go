package telemetry

import (
	"context"
	"log/slog"

	"github.com/aretw0/lendflow/pkg/domain"
)

// LogHooks logs stage transitions and collaborator replies at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(_ context.Context, e *domain.StageEvent) {
			logger.Debug("stage_enter", "session_id", e.SessionID, "stage", e.Stage, "handler", e.Handler)
		},
		OnStageLeave: func(_ context.Context, e *domain.StageEvent) {
			logger.Debug("stage_leave", "session_id", e.SessionID, "stage", e.Stage)
		},
		OnCollaboratorReply: func(_ context.Context, e *domain.CollaboratorEvent) {
			logger.Debug("collaborator_reply",
				"session_id", e.SessionID,
				"collaborator", e.Collaborator,
				"duration", e.Duration,
				"is_error", e.IsError,
			)
		},
	}
}

// Chain fans every event out to each set of hooks in order.
func Chain(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(ctx context.Context, e *domain.StageEvent) {
			for _, h := range all {
				if h.OnStageEnter != nil {
					h.OnStageEnter(ctx, e)
				}
			}
		},
		OnStageLeave: func(ctx context.Context, e *domain.StageEvent) {
			for _, h := range all {
				if h.OnStageLeave != nil {
					h.OnStageLeave(ctx, e)
				}
			}
		},
		OnCollaboratorCall: func(ctx context.Context, e *domain.CollaboratorEvent) {
			for _, h := range all {
				if h.OnCollaboratorCall != nil {
					h.OnCollaboratorCall(ctx, e)
				}
			}
		},
		OnCollaboratorReply: func(ctx context.Context, e *domain.CollaboratorEvent) {
			for _, h := range all {
				if h.OnCollaboratorReply != nil {
					h.OnCollaboratorReply(ctx, e)
				}
			}
		},
	}
}
