// Package metrics defines the Prometheus collectors exported by the pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "studysync"

// Outcome label values.
const (
	OutcomeSuccess    = "success"
	OutcomeFailure    = "failure"
	OutcomeDropped    = "dropped"
	OutcomeRetry      = "retry"
	OutcomeDeadLetter = "dead_letter"
	OutcomeNotFound   = "not_found"
	OutcomeError      = "error"
)

// Metrics holds the collectors for the publisher, dispatch queue and query service.
type Metrics struct {
	publishAttempts  *prometheus.CounterVec
	publishExhausted *prometheus.CounterVec
	jobs             *prometheus.CounterVec
	lookups          *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		publishAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_attempts_total",
			Help:      "Broker write attempts by topic and outcome.",
		}, []string{"topic", "outcome"}),
		publishExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_exhausted_total",
			Help:      "Events dropped after the publisher retry budget was spent.",
		}, []string{"topic"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_jobs_total",
			Help:      "Dispatch handler invocations by job kind and outcome.",
		}, []string{"kind", "outcome"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_lookups_total",
			Help:      "Entity query service lookups by method and outcome.",
		}, []string{"method", "outcome"}),
	}
	reg.MustRegister(m.publishAttempts, m.publishExhausted, m.jobs, m.lookups)
	return m
}

func (m *Metrics) PublishAttempt(topic, outcome string) {
	if m == nil {
		return
	}
	m.publishAttempts.WithLabelValues(topic, outcome).Inc()
}

func (m *Metrics) PublishExhausted(topic string) {
	if m == nil {
		return
	}
	m.publishExhausted.WithLabelValues(topic).Inc()
}

func (m *Metrics) Job(kind, outcome string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Lookup(method, outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(method, outcome).Inc()
}
