package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	RateLookups    *prometheus.CounterVec
	RateLatency    *prometheus.HistogramVec
	ActivityWrites *prometheus.CounterVec
	Commands       *prometheus.CounterVec
	Errors         *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			RateLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_lookups_total",
				Help:      "Total exchange rate lookups by outcome.",
			}, []string{"outcome"}),
			RateLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rate_lookup_duration_seconds",
				Help:      "Latency distribution for rate feed requests.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"outcome"}),
			ActivityWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "activity_writes_total",
				Help:      "Total activity record writes by outcome.",
			}, []string{"outcome"}),
			Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Total bot commands handled by name.",
			}, []string{"command"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.RateLookups,
			metricsInstance.RateLatency,
			metricsInstance.ActivityWrites,
			metricsInstance.Commands,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}
