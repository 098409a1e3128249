// Package observability holds the prometheus collectors of the relay.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "interview_relay"

// Metrics groups the chat streaming and prompt collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// RequestsTotal counts /chat requests. Labels: role, status.
	RequestsTotal *prometheus.CounterVec
	// FragmentsTotal counts fragments relayed to clients. Labels: role.
	FragmentsTotal *prometheus.CounterVec
	// ActiveStreams tracks open SSE responses.
	ActiveStreams prometheus.Gauge
	// TimeToFirstFragment measures the delay until the first fragment. Labels: role.
	TimeToFirstFragment *prometheus.HistogramVec
	// StreamDuration measures whole streams. Labels: role, status.
	StreamDuration *prometheus.HistogramVec
	// PromptResolutions counts startup prompt lookups. Labels: name, source.
	PromptResolutions *prometheus.CounterVec
}

// Request statuses used as label values.
const (
	StatusOK          = "ok"
	StatusInvalid     = "invalid"
	StatusUnavailable = "unavailable"
	StatusUpstream    = "upstream_error"
	StatusInterrupted = "interrupted"
	StatusCanceled    = "canceled"
	StatusLimited     = "rate_limited"
)

// NewMetrics registers every collector on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Chat requests by request role and outcome.",
		}, []string{"role", "status"}),
		FragmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "fragments_total",
			Help:      "Text fragments relayed to clients.",
		}, []string{"role"}),
		ActiveStreams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "active_streams",
			Help:      "Event streams currently open.",
		}),
		TimeToFirstFragment: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "time_to_first_fragment_seconds",
			Help:      "Latency from request start to the first relayed fragment.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"role"}),
		StreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "stream_duration_seconds",
			Help:      "Total duration of event streams.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"role", "status"}),
		PromptResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prompt",
			Name:      "resolutions_total",
			Help:      "Startup prompt resolutions by name and source.",
		}, []string{"name", "source"}),
	}
}

func (m *Metrics) ObserveRequest(role, status string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(role, status).Inc()
}

func (m *Metrics) ObserveFragment(role string) {
	if m == nil {
		return
	}
	m.FragmentsTotal.WithLabelValues(role).Inc()
}

func (m *Metrics) ObserveFirstFragment(role string, since time.Time) {
	if m == nil {
		return
	}
	m.TimeToFirstFragment.WithLabelValues(role).Observe(time.Since(since).Seconds())
}

// StreamStarted increments the active gauge and returns the matching
// completion callback.
func (m *Metrics) StreamStarted(role string) func(status string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.ActiveStreams.Inc()
	return func(status string) {
		m.ActiveStreams.Dec()
		m.StreamDuration.WithLabelValues(role, status).Observe(time.Since(start).Seconds())
		m.RequestsTotal.WithLabelValues(role, status).Inc()
	}
}

func (m *Metrics) ObservePromptResolution(name, source string) {
	if m == nil {
		return
	}
	m.PromptResolutions.WithLabelValues(name, source).Inc()
}
