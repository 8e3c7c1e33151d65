package telemetry_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/internal/telemetry"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHooks(t *testing.T) {
	m := telemetry.NewMetrics()
	hooks := telemetry.Chain(m.Hooks(), telemetry.LogHooks(logging.NewNop()))
	ctx := context.Background()

	hooks.OnStageEnter(ctx, &domain.StageEvent{Stage: domain.StageOfferPresentation, Handler: domain.HandlerSales})
	hooks.OnStageEnter(ctx, &domain.StageEvent{Stage: domain.StageOfferPresentation, Handler: domain.HandlerSales})
	hooks.OnStageLeave(ctx, &domain.StageEvent{Stage: domain.StageOfferPresentation})
	hooks.OnCollaboratorCall(ctx, &domain.CollaboratorEvent{Collaborator: "kyc"})
	hooks.OnCollaboratorReply(ctx, &domain.CollaboratorEvent{Collaborator: "kyc", Duration: 20 * time.Millisecond})
	hooks.OnCollaboratorReply(ctx, &domain.CollaboratorEvent{Collaborator: "credit_bureau", IsError: true})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, `lendflow_stage_visits_total{handler="sales",stage="offer_presentation"} 2`)
	assert.Contains(t, body, `lendflow_collaborator_calls_total{collaborator="kyc",outcome="ok"} 1`)
	assert.Contains(t, body, `lendflow_collaborator_calls_total{collaborator="credit_bureau",outcome="error"} 1`)
	assert.Contains(t, body, `lendflow_collaborator_duration_seconds_count{collaborator="kyc"} 1`)
}

func TestChain_SkipsMissingCallbacks(t *testing.T) {
	var seen []string
	hooks := telemetry.Chain(
		domain.LifecycleHooks{},
		domain.LifecycleHooks{OnStageLeave: func(_ context.Context, e *domain.StageEvent) { seen = append(seen, string(e.Stage)) }},
	)
	hooks.OnStageEnter(context.Background(), &domain.StageEvent{Stage: domain.StageGreeting})
	hooks.OnStageLeave(context.Background(), &domain.StageEvent{Stage: domain.StageGreeting})
	assert.Equal(t, []string{"greeting"}, seen)
}

func TestInitTracer(t *testing.T) {
	var out strings.Builder
	shutdown, err := telemetry.InitTracer(&out, logging.NewNop())
	require.NoError(t, err)

	_, span := telemetry.Tracer().Start(context.Background(), "turn")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, out.String(), `"Name": "turn"`)
}
