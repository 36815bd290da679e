package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "momentum"

// Run results recorded by RecordRun
const (
	RunNudged   = "nudged"
	RunNoNudge  = "no_nudge"
	RunNotFound = "not_found"
	RunFailed   = "failed"
)

// Job outcomes recorded by RecordJob
const (
	JobProcessed    = "processed"
	JobSkipped      = "skipped"
	JobRetried      = "retried"
	JobDeadLettered = "dead_lettered"
	JobScheduled    = "scheduled"
)

// Metrics holds the Prometheus collectors of the agent. A nil *Metrics is a no-op.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	NudgesTotal     *prometheus.CounterVec
	LLMFallbacks    *prometheus.CounterVec
	Score           prometheus.Histogram
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	JobsTotal       *prometheus.CounterVec
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Agent runs by result",
			},
			[]string{"result"},
		),
		NudgesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nudges_total",
				Help:      "Nudges generated by category and priority",
			},
			[]string{"category", "priority"},
		),
		LLMFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_fallbacks_total",
				Help:      "Template fallbacks taken instead of a language-model message",
			},
			[]string{"reason"},
		),
		Score: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "score",
				Help:      "Distribution of computed loneliness scores",
				Buckets:   prometheus.LinearBuckets(0, 10, 11),
			},
		),
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		JobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "worker",
				Name:      "jobs_total",
				Help:      "Queue jobs processed by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordRun counts one agent run
func (m *Metrics) RecordRun(result string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(result).Inc()
}

// RecordNudge counts one generated nudge
func (m *Metrics) RecordNudge(category, priority string) {
	if m == nil {
		return
	}
	m.NudgesTotal.WithLabelValues(category, priority).Inc()
}

// RecordFallback counts one template fallback
func (m *Metrics) RecordFallback(reason string) {
	if m == nil {
		return
	}
	m.LLMFallbacks.WithLabelValues(reason).Inc()
}

// ObserveScore records a computed score
func (m *Metrics) ObserveScore(score int) {
	if m == nil {
		return
	}
	m.Score.Observe(float64(score))
}

// RecordJob counts one processed queue job
func (m *Metrics) RecordJob(outcome string) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestCounter.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
