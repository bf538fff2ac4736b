package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records proxy metrics using Prometheus
type Collector struct {
	queries          *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	inFlight         prometheus.Gauge
	upstreamUp       prometheus.Gauge
	probes           *prometheus.CounterVec
}

// NewCollector creates a new Prometheus metrics collector registered on reg.
// A nil reg registers on the default registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sparqlproxy_queries_total",
				Help: "Total number of queries received, by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sparqlproxy_upstream_duration_seconds",
				Help:    "Upstream SPARQL request duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sparqlproxy_queries_in_flight",
				Help: "Number of queries currently waiting on the upstream endpoint",
			},
		),
		upstreamUp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sparqlproxy_upstream_up",
				Help: "Whether the last upstream probe succeeded (1) or failed (0)",
			},
		),
		probes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sparqlproxy_probes_total",
				Help: "Total number of upstream probes, by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// IncQueries increments the count of received queries
func (c *Collector) IncQueries(source, outcome string) {
	c.queries.WithLabelValues(source, outcome).Inc()
}

// ObserveUpstreamDuration records the duration of one upstream request
func (c *Collector) ObserveUpstreamDuration(outcome string, duration time.Duration) {
	c.upstreamDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// IncInFlight increments the in-flight gauge
func (c *Collector) IncInFlight() {
	c.inFlight.Inc()
}

// DecInFlight decrements the in-flight gauge
func (c *Collector) DecInFlight() {
	c.inFlight.Dec()
}

// RecordProbe records the result of an upstream probe
func (c *Collector) RecordProbe(outcome string, up bool) {
	c.probes.WithLabelValues(outcome).Inc()
	if up {
		c.upstreamUp.Set(1)
	} else {
		c.upstreamUp.Set(0)
	}
}
