package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for the explorer server.
type Metrics struct {
	registry *prometheus.Registry

	// Request latency by route template, method and status
	RequestLatency *prometheus.HistogramVec

	// Live dashboard sessions
	ActiveSessions prometheus.Gauge

	// Dashboard events by type and outcome
	Events *prometheus.CounterVec

	// Rule firings by rule name
	RuleFirings *prometheus.CounterVec

	// Records in the loaded dataset
	Records prometheus.Gauge
}

// New creates a Metrics instance registered on its own registry, so that
// several servers (and tests) can coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spores_explorer_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route", "method", "status"}),

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "spores_explorer_active_sessions",
			Help: "Number of live dashboard sessions",
		}),

		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spores_explorer_events_total",
			Help: "Total dashboard events by type and outcome",
		}, []string{"type", "outcome"}), // outcome: "ok", "error"

		RuleFirings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spores_explorer_rule_firings_total",
			Help: "Total dashboard rule firings by rule",
		}, []string{"rule"}),

		Records: factory.NewGauge(prometheus.GaugeOpts{
			Name: "spores_explorer_dataset_records",
			Help: "Number of records in the loaded dataset",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the registry the metrics live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records the duration of one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, method, http.StatusText(status)).Observe(d.Seconds())
	}
}

// SetActiveSessions records the live session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m != nil {
		m.ActiveSessions.Set(float64(n))
	}
}

// IncrementEvent records one dashboard event.
func (m *Metrics) IncrementEvent(eventType string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Events.WithLabelValues(eventType, outcome).Inc()
}

// IncrementRuleFiring records one rule firing.
func (m *Metrics) IncrementRuleFiring(rule string) {
	if m != nil {
		m.RuleFirings.WithLabelValues(rule).Inc()
	}
}

// SetRecords records the dataset size.
func (m *Metrics) SetRecords(n int) {
	if m != nil {
		m.Records.Set(float64(n))
	}
}
