// Package metrics provides Prometheus metrics for the response pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exports pipeline metrics in Prometheus format. A nil Collector
// is valid and drops every observation, so callers never nil-check.
type Collector struct {
	registry *prometheus.Registry

	repliesTotal    *prometheus.CounterVec
	respondLatency  *prometheus.HistogramVec
	feedbackTotal   *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
}

// Config configures the collector.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for the respond latency histogram (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default collector configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}
}

// NewCollector creates a pipeline metrics collector.
func NewCollector(cfg Config) *Collector {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{registry: registry}

	c.repliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sabia",
			Subsystem: "engine",
			Name:      "replies_total",
			Help:      "Total replies produced, by resolution stage",
		},
		[]string{"stage"},
	)

	c.respondLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sabia",
			Subsystem: "engine",
			Name:      "respond_latency_seconds",
			Help:      "Respond pipeline latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"stage"},
	)

	c.feedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sabia",
			Subsystem: "engine",
			Name:      "feedback_total",
			Help:      "Total feedback events, by polarity",
		},
		[]string{"polarity"},
	)

	c.persistFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sabia",
			Subsystem: "store",
			Name:      "persist_failures_total",
			Help:      "Total persistence failures, by store",
		},
		[]string{"store"},
	)

	registry.MustRegister(c.repliesTotal, c.respondLatency, c.feedbackTotal, c.persistFailures)
	return c
}

// ObserveRespond records one produced reply and its latency.
func (c *Collector) ObserveRespond(stage string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.repliesTotal.WithLabelValues(stage).Inc()
	c.respondLatency.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// CountFeedback records one feedback event.
func (c *Collector) CountFeedback(polarity string) {
	if c == nil {
		return
	}
	c.feedbackTotal.WithLabelValues(polarity).Inc()
}

// CountPersistFailure records one failed save.
func (c *Collector) CountPersistFailure(store string) {
	if c == nil {
		return
	}
	c.persistFailures.WithLabelValues(store).Inc()
}

// Handler returns the HTTP handler exposing the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
