package obs

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domainaudit "hotelaudit/internal/domain/audit"
)

// Metrics owns the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	messages        *prometheus.CounterVec
	messageDuration *prometheus.HistogramVec
	geoLookups      *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotelaudit_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hotelaudit_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotelaudit_messages_total",
			Help: "Commands and queries by key and outcome.",
		}, []string{"kind", "key", "outcome"}),
		messageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hotelaudit_message_duration_seconds",
			Help:    "Command and query handling time.",
			Buckets: []float64{.005, .05, .5, 1, 2.5, 5, 10},
		}, []string{"kind", "key"}),
		geoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotelaudit_geo_lookups_total",
			Help: "Currency geolocation lookups by outcome.",
		}, []string{"outcome"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotelaudit_events_published_total",
			Help: "Outbox publications by topic and outcome.",
		}, []string{"topic", "outcome"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.messages,
		m.messageDuration,
		m.geoLookups,
		m.eventsPublished,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, path, status string, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Observe implements the app middleware observer.
func (m *Metrics) Observe(kind, key string, elapsed time.Duration, err error) {
	m.messages.WithLabelValues(kind, key, outcomeOf(err)).Inc()
	m.messageDuration.WithLabelValues(kind, key).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveGeoLookup(outcome string) {
	m.geoLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObservePublish(topic string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.eventsPublished.WithLabelValues(topic, outcome).Inc()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domainaudit.IsValidationError(err):
		return "invalid"
	case errors.Is(err, domainaudit.ErrAnalysisInProgress):
		return "busy"
	default:
		return "error"
	}
}
