package prometheus

import "github.com/prometheus/client_golang/prometheus"

var (
	registry = prometheus.NewRegistry()
	metrics  = NewMetrics(registry)
)

// GetRegistry returns the process registry. The admin metrics listener
// serves it, so everything registered here is exported.
func GetRegistry() *prometheus.Registry {
	return registry
}

// GetMetrics returns the collectors bound to the process registry.
func GetMetrics() *Metrics {
	return metrics
}
