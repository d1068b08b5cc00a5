package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service's Prometheus collectors on a private registry.
type Metrics struct {
	Registry          *prometheus.Registry
	ChatTurns         *prometheus.CounterVec
	BackendLatency    *prometheus.HistogramVec
	RepliesUnrecorded *prometheus.CounterVec
	Generations       *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		ChatTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mixmaster_chat_turns_total",
			Help: "Chat turns handled, by route and outcome.",
		}, []string{"route", "outcome"}),
		BackendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mixmaster_backend_latency_seconds",
			Help:    "Latency of generation backend calls.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"route"}),
		RepliesUnrecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mixmaster_replies_unrecorded_total",
			Help: "Replies returned to the caller that could not be persisted.",
		}, []string{"route"}),
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mixmaster_generations_total",
			Help: "Single-turn generation requests, by task and outcome.",
		}, []string{"task", "outcome"}),
	}

	reg.MustRegister(
		m.ChatTurns,
		m.BackendLatency,
		m.RepliesUnrecorded,
		m.Generations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
