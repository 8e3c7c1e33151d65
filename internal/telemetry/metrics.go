package telemetry

import (
	"context"
	"net/http"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records stage visits and collaborator calls.
type Metrics struct {
	registry      *prometheus.Registry
	stageVisits   *prometheus.CounterVec
	collabCalls   *prometheus.CounterVec
	collabLatency *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a private registry, along with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stageVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lendflow_stage_visits_total",
				Help: "Total number of conversation stage entries",
			},
			[]string{"stage", "handler"},
		),
		collabCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lendflow_collaborator_calls_total",
				Help: "Total number of external collaborator calls",
			},
			[]string{"collaborator", "outcome"},
		),
		collabLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lendflow_collaborator_duration_seconds",
				Help:    "Duration of external collaborator calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"collaborator"},
		),
	}
	m.registry.MustRegister(
		m.stageVisits,
		m.collabCalls,
		m.collabLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks records into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(_ context.Context, e *domain.StageEvent) {
			m.stageVisits.WithLabelValues(string(e.Stage), string(e.Handler)).Inc()
		},
		OnCollaboratorReply: func(_ context.Context, e *domain.CollaboratorEvent) {
			outcome := "ok"
			if e.IsError {
				outcome = "error"
			}
			m.collabCalls.WithLabelValues(e.Collaborator, outcome).Inc()
			m.collabLatency.WithLabelValues(e.Collaborator).Observe(e.Duration.Seconds())
		},
	}
}
