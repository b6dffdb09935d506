package provisioning

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "infrabuilder"

// Metrics records polling and purge activity in a private Prometheus registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	polls          *prometheus.CounterVec
	waitDuration   *prometheus.HistogramVec
	providerEvents *prometheus.CounterVec
	purgedItems    *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "polls_total",
				Help:      "Status polls by operation family and observed class",
			},
			[]string{"family", "class"},
		),
		waitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "wait_duration_seconds",
				Help:      "Time spent waiting for operations to reach a terminal status",
				Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 900, 1800, 3600},
			},
			[]string{"family", "outcome"},
		),
		providerEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "provider_events_total",
				Help:      "Provider events reported while waiting",
			},
			[]string{"family"},
		),
		purgedItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "purged_items_total",
				Help:      "Objects and images deleted before stack deletion",
			},
			[]string{"kind"},
		),
	}

	m.registry.MustRegister(m.polls, m.waitDuration, m.providerEvents, m.purgedItems)
	return m
}

// ObservePoll counts one status poll.
func (m *Metrics) ObservePoll(family, class string) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(family, class).Inc()
}

// ObserveWait records the duration of one wait and how it ended.
func (m *Metrics) ObserveWait(family, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.waitDuration.WithLabelValues(family, outcome).Observe(d.Seconds())
}

// ObserveProviderEvents counts reported provider events.
func (m *Metrics) ObserveProviderEvents(family string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.providerEvents.WithLabelValues(family).Add(float64(n))
}

// ObservePurged counts deleted objects or images.
func (m *Metrics) ObservePurged(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.purgedItems.WithLabelValues(kind).Add(float64(n))
}

// Gatherer exposes the registry, e.g. for testutil assertions.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format, suitable for
// the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
