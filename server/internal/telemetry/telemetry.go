package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "echolink"

// Metrics holds the Prometheus instruments for both WebSocket services.
// The "service" label is "echo" or "relay".
type Metrics struct {
	registry *prometheus.Registry

	ActiveConnections *prometheus.GaugeVec
	MessagesTotal     *prometheus.CounterVec
	BroadcastsTotal   *prometheus.CounterVec
	SkippedSendsTotal *prometheus.CounterVec
	MalformedTotal    prometheus.Counter
}

// New creates and registers all server metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ActiveConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of currently open WebSocket connections, by service.",
		}, []string{"service"}),
		MessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total inbound WebSocket messages, by service.",
		}, []string{"service"}),
		BroadcastsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Total fan-out broadcast operations, by service.",
		}, []string{"service"}),
		SkippedSendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_sends_total",
			Help:      "Broadcast deliveries skipped because the client was not writable.",
		}, []string{"service"}),
		MalformedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_payloads_total",
			Help:      "Relay payloads discarded because they were not valid JSON.",
		}),
	}

	reg.MustRegister(
		m.ActiveConnections,
		m.MessagesTotal,
		m.BroadcastsTotal,
		m.SkippedSendsTotal,
		m.MalformedTotal,
	)
	return m
}

// Handler returns the Prometheus exposition handler for GET /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
