package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/coordinator"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables periodic performance statistics in the log.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler sets the profiler receiving tick metrics. Share it with coordinators
// built with coordinator.WithProfiler to collect every metric in one registry.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWorkers configures the worker pool coordinators are ticked on.
//
// Parameters:
//   - workers: the number of workers (values <= 0 keep the default of 4)
//   - queueSize: the task queue capacity (values <= 0 keep the default of 256)
//   - idleTimeout: how long a surplus worker idles before exiting
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWorkers(workers, queueSize int, idleTimeout time.Duration) EngineBuilderOption {
	return func(e *engine) {
		if workers > 0 {
			e.workers = workers
		}
		if queueSize > 0 {
			e.queueSize = queueSize
		}
		if idleTimeout > 0 {
			e.idleTimeout = idleTimeout
		}
	}
}

// WithLogger sets the engine logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCoordinators registers coordinators during engine construction.
//
// Parameters:
//   - coords: the coordinators to drive
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCoordinators(coords ...coordinator.Coordinator) EngineBuilderOption {
	return func(e *engine) {
		e.coordinators = append(e.coordinators, coords...)
	}
}
