package profiler

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProfilerBuilderOption is a functional option for configuring a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithLogger sets the logger the periodic summary is written to.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - ProfilerBuilderOption: functional option to set the logger
func WithLogger(logger *slog.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithUpdateInterval sets how often the summary is logged.
//
// Parameters:
//   - d: the interval
//
// Returns:
//   - ProfilerBuilderOption: functional option to set the interval
func WithUpdateInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithRegistry registers the metrics in an existing registry.
//
// Parameters:
//   - registry: the registry
//
// Returns:
//   - ProfilerBuilderOption: functional option to set the registry
func WithRegistry(registry *prometheus.Registry) ProfilerBuilderOption {
	return func(p *Profiler) {
		if registry != nil {
			p.registry = registry
		}
	}
}

// WithNamespace sets the metric name prefix. Defaults to "oxyanim".
//
// Parameters:
//   - namespace: the prefix
//
// Returns:
//   - ProfilerBuilderOption: functional option to set the namespace
func WithNamespace(namespace string) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.namespace = namespace
	}
}
