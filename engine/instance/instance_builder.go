package instance

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/channel"
)

// InstanceBuilderOption is a functional option for configuring an Instance during attach.
type InstanceBuilderOption func(*instance)

// WithBlend sets the initial blend weight. Defaults to 1.
//
// Parameters:
//   - w: the weight in [0, 1]
//
// Returns:
//   - InstanceBuilderOption: functional option to set the weight
func WithBlend(w float64) InstanceBuilderOption {
	return func(i *instance) {
		i.blend = w
	}
}

// WithAmplitude blends every channel against a snapshot of its first frame by an amplitude
// weight. Without this option the amplitude is unused and reads -1.
//
// Parameters:
//   - a: the initial amplitude in [0, 1]
//
// Returns:
//   - InstanceBuilderOption: functional option to enable amplitude
func WithAmplitude(a float64) InstanceBuilderOption {
	return func(i *instance) {
		i.amplitude = common.Clamp01(a)
	}
}

// WithPriority sets the blend priority.
//
// Parameters:
//   - p: the priority, higher lands on top by default
//
// Returns:
//   - InstanceBuilderOption: functional option to set the priority
func WithPriority(p int) InstanceBuilderOption {
	return func(i *instance) {
		i.priority = p
	}
}

// WithPriorityFunc sets the rule deciding where contributions land in existing blends.
//
// Parameters:
//   - fn: the ordering rule
//
// Returns:
//   - InstanceBuilderOption: functional option to set the rule
func WithPriorityFunc(fn channel.PriorityFunc) InstanceBuilderOption {
	return func(i *instance) {
		if fn != nil {
			i.above = fn
		}
	}
}

// WithCache memoizes every channel of the instance per tick.
//
// Parameters:
//   - cache: true to insert cache nodes
//
// Returns:
//   - InstanceBuilderOption: functional option to enable caching
func WithCache(cache bool) InstanceBuilderOption {
	return func(i *instance) {
		i.cache = cache
	}
}

// WithDriver positions a driven animation: anim time is begin plus the clamped driver value times the length.
//
// Parameters:
//   - driver: the [0, 1] source
//
// Returns:
//   - InstanceBuilderOption: functional option to set the driver
func WithDriver(driver channel.Scalar) InstanceBuilderOption {
	return func(i *instance) {
		i.driver = driver
	}
}

// WithLoop overrides the definition's loop flag.
//
// Parameters:
//   - loop: true to loop
//
// Returns:
//   - InstanceBuilderOption: functional option to set looping
func WithLoop(loop bool) InstanceBuilderOption {
	return func(i *instance) {
		i.loop = &loop
	}
}

// WithSpeed sets the initial playback rate.
//
// Parameters:
//   - speed: the rate multiplier
//
// Returns:
//   - InstanceBuilderOption: functional option to set the speed
func WithSpeed(speed float64) InstanceBuilderOption {
	return func(i *instance) {
		i.speed = &speed
	}
}

// WithLogger sets the logger attach and detach events are reported to.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - InstanceBuilderOption: functional option to set the logger
func WithLogger(logger *slog.Logger) InstanceBuilderOption {
	return func(i *instance) {
		if logger != nil {
			i.logger = logger
		}
	}
}
