package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPLatency     *prometheus.HistogramVec
	LLMRequests     *prometheus.CounterVec
	LLMLatency      *prometheus.HistogramVec
	WebhookRequests *prometheus.CounterVec
	WebhookLatency  *prometheus.HistogramVec
	Jobs            *prometheus.CounterVec
	LeadExtractions *prometheus.CounterVec
	Errors          *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds the metrics singleton and registers it with the default
// Prometheus registerer.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = New(namespace, prometheus.DefaultRegisterer)
	})
	return metricsInstance
}

// New builds a fresh set of collectors registered with reg. A nil reg skips
// registration.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution for HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		LLMRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total LLM completion requests by purpose and outcome.",
		}, []string{"purpose", "status"}),
		LLMLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Latency distribution for LLM completion calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"purpose", "status"}),
		WebhookRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_relay_requests_total",
			Help:      "Total webhook relay calls by outcome.",
		}, []string{"status"}),
		WebhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_relay_duration_seconds",
			Help:      "Latency distribution for webhook relay calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		Jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "background_jobs_total",
			Help:      "Background jobs by kind and outcome.",
		}, []string{"kind", "status"}),
		LeadExtractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lead_extractions_total",
			Help:      "Lead extraction passes by result.",
		}, []string{"result"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total errors grouped by component.",
		}, []string{"component"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.HTTPRequests,
			m.HTTPLatency,
			m.LLMRequests,
			m.LLMLatency,
			m.WebhookRequests,
			m.WebhookLatency,
			m.Jobs,
			m.LeadExtractions,
			m.Errors,
		)
	}
	return m
}

// Error increments the error counter for component. It is safe on a nil receiver.
func (m *Metrics) Error(component string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(component).Inc()
}
