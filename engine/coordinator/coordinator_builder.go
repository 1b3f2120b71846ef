package coordinator

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-anim/engine/channel"
	"github.com/Carmen-Shannon/oxy-anim/engine/definition"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
)

// CoordinatorBuilderOption is a functional option for configuring a Coordinator during construction.
type CoordinatorBuilderOption func(*coordinator)

// WithName overrides the coordinator name used in logs and dumps.
//
// Parameters:
//   - name: the name
//
// Returns:
//   - CoordinatorBuilderOption: functional option to set the name
func WithName(name string) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.name = name
	}
}

// WithLogger sets the logger passed on to every attached instance.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - CoordinatorBuilderOption: functional option to set the logger
func WithLogger(logger *slog.Logger) CoordinatorBuilderOption {
	return func(c *coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProfiler records attach, detach and apply metrics.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - CoordinatorBuilderOption: functional option to set the profiler
func WithProfiler(p *profiler.Profiler) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.profiler = p
	}
}

// WithLibrary sets where animations attached by name are looked up.
//
// Parameters:
//   - library: the definition library
//
// Returns:
//   - CoordinatorBuilderOption: functional option to set the library
func WithLibrary(library definition.Library) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.library = library
	}
}

// WithPriorityFunc sets the rule deciding where new contributions land in existing blends.
//
// Parameters:
//   - fn: the ordering rule
//
// Returns:
//   - CoordinatorBuilderOption: functional option to set the rule
func WithPriorityFunc(fn channel.PriorityFunc) CoordinatorBuilderOption {
	return func(c *coordinator) {
		if fn != nil {
			c.above = fn
		}
	}
}

// WithPrivateAnimations sets animations that belong to the target and are attached on every Bind.
//
// Parameters:
//   - defs: the definitions in attach order
//
// Returns:
//   - CoordinatorBuilderOption: functional option to set the private animations
func WithPrivateAnimations(defs ...definition.Definition) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.private = append(c.private, defs...)
	}
}
