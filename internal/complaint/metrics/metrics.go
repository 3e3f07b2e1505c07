// Package metrics exposes the grievance service's Prometheus instrumentation.
// All methods are nil-safe so unit tests can pass a nil *Metrics and skip
// instrumentation entirely.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the complaint-domain collectors.
type Metrics struct {
	complaintsCreated  *prometheus.CounterVec
	complaintsUpdated  *prometheus.CounterVec
	searchesPerformed  *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	eventsPublished    *prometheus.CounterVec
}

// New registers the complaint collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		complaintsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grievance",
			Name:      "complaints_created_total",
			Help:      "Complaints accepted for creation, by tenant and submission source.",
		}, []string{"tenant", "source"}),
		complaintsUpdated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grievance",
			Name:      "complaints_updated_total",
			Help:      "Complaint updates accepted, by tenant and workflow action.",
		}, []string{"tenant", "action"}),
		searchesPerformed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grievance",
			Name:      "searches_total",
			Help:      "Complaint searches served, by caller type and platform.",
		}, []string{"caller_type", "platform"}),
		validationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grievance",
			Name:      "validation_failures_total",
			Help:      "Requests rejected by validation, by error code.",
		}, []string{"code"}),
		operationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "grievance",
			Name:      "operation_duration_seconds",
			Help:      "End-to-end latency of service operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		eventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grievance",
			Name:      "events_published_total",
			Help:      "Envelopes handed to the event sink, by topic.",
		}, []string{"topic"}),
	}
}

func (m *Metrics) ComplaintCreated(tenant, source string) {
	if m == nil {
		return
	}
	m.complaintsCreated.WithLabelValues(tenant, source).Inc()
}

func (m *Metrics) ComplaintUpdated(tenant, action string) {
	if m == nil {
		return
	}
	m.complaintsUpdated.WithLabelValues(tenant, action).Inc()
}

func (m *Metrics) SearchPerformed(callerType, platform string) {
	if m == nil {
		return
	}
	m.searchesPerformed.WithLabelValues(callerType, platform).Inc()
}

func (m *Metrics) ValidationFailed(code string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(code).Inc()
}

func (m *Metrics) ObserveOperation(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

func (m *Metrics) EventPublished(topic string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(topic).Inc()
}
