package clock

// ClockBuilderOption is a functional option for configuring a Clock during construction.
type ClockBuilderOption func(*clock)

// WithRange sets the playable range.
//
// Parameters:
//   - begin: the first playable anim time
//   - end: the last playable anim time
//
// Returns:
//   - ClockBuilderOption: functional option to set the range
func WithRange(begin, end float64) ClockBuilderOption {
	return func(c *clock) {
		c.begin, c.end = begin, end
	}
}

// WithLoopRange sets the loop range. When unset or empty the playable range is used.
//
// Parameters:
//   - begin: the loop start
//   - end: the loop end
//
// Returns:
//   - ClockBuilderOption: functional option to set the loop range
func WithLoopRange(begin, end float64) ClockBuilderOption {
	return func(c *clock) {
		c.loopBegin, c.loopEnd = begin, end
	}
}

// WithLoop enables looping.
//
// Parameters:
//   - loop: true to wrap at the loop end
//
// Returns:
//   - ClockBuilderOption: functional option to set looping
func WithLoop(loop bool) ClockBuilderOption {
	return func(c *clock) {
		c.loop = loop
	}
}

// WithSpeed sets the playback rate multiplier.
//
// Parameters:
//   - speed: the multiplier
//
// Returns:
//   - ClockBuilderOption: functional option to set the speed
func WithSpeed(speed float64) ClockBuilderOption {
	return func(c *clock) {
		c.speed = speed
	}
}

// WithInitialTime sets the anim time playback starts from.
//
// Parameters:
//   - t: the initial anim time
//
// Returns:
//   - ClockBuilderOption: functional option to set the initial time
func WithInitialTime(t float64) ClockBuilderOption {
	return func(c *clock) {
		c.current = t
	}
}

// WithWorldTime anchors the clock at a world time, so the first evaluation does not count
// the world time elapsed before the clock existed.
//
// Parameters:
//   - w: the world time the clock is created at
//
// Returns:
//   - ClockBuilderOption: functional option to set the anchor
func WithWorldTime(w float64) ClockBuilderOption {
	return func(c *clock) {
		c.lastEval, c.lastStateChange = w, w
	}
}

// WithStateChangeHook registers a function called whenever playback state changes.
//
// Parameters:
//   - fn: the hook
//
// Returns:
//   - ClockBuilderOption: functional option to set the hook
func WithStateChangeHook(fn func()) ClockBuilderOption {
	return func(c *clock) {
		c.onChange = fn
	}
}
