// Package metrics provides Prometheus metrics for the scoreline service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Option customises a Manager before its collectors are registered.
// Zero values leave the defaults in place.
type Option func(*Manager)

// WithNamespace replaces the "scoreline" metric prefix.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem replaces the "leaderboard" segment of metric names.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets sets the millisecond buckets shared by the recompute,
// source load, worker and HTTP latency histograms.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) == 0 {
			return
		}
		m.histogramBuckets = append([]float64(nil), buckets...)
	}
}

// WithConstLabels adds labels such as the deployment or source kind to
// every collector. Later calls extend earlier ones.
func WithConstLabels(labels map[string]string) Option {
	return func(m *Manager) {
		if len(labels) == 0 {
			return
		}
		if m.constLabels == nil {
			m.constLabels = prometheus.Labels{}
		}
		for k, v := range labels {
			m.constLabels[k] = v
		}
	}
}

// WithPrometheusRegistry registers the collectors on registry instead of
// the default registerer.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}
