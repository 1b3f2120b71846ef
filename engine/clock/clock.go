package clock

import (
	"math"

	"github.com/Carmen-Shannon/oxy-anim/engine/channel"
)

// EventType identifies a playback event a callback can listen for.
type EventType uint8

const (
	EventStart EventType = iota
	EventStop
	EventBegin
	EventEnd
	EventTime
	EventReverse
)

// Event is delivered to callbacks.
type Event struct {
	Type      EventType
	Name      string
	AnimTime  float64
	WorldTime float64
}

// Callback is a registered playback listener.
type Callback struct {
	// Event selects what the callback listens for.
	Event EventType

	// Name is passed back in the Event, usually a marker name.
	Name string

	// Time is the anim time for EventTime callbacks.
	Time float64

	// Repeats is how many more times the callback fires after the next one; negative repeats forever.
	Repeats int

	// Fn is invoked when the event fires.
	Fn func(Event)
}

type clock struct {
	initialBegin, initialEnd float64
	begin, end               float64
	loopBegin, loopEnd       float64
	wrapTime                 float64
	speed                    float64

	stopped, loop, backwards, wrap, needsReset, callbacksOff bool

	current         float64
	lastEval        float64
	lastStateChange float64
	stateStart      float64
	epoch           uint64

	callbacks []*Callback
	onChange  func()
}

// Clock converts world time to local animation time for one attached animation.
// It is lazily advanced: evaluating it at a world time moves playback forward by the
// elapsed world time since the previous evaluation, so evaluating twice at the same time is
// idempotent. World times passed to a Clock must be non-decreasing.
type Clock interface {
	channel.Scalar

	// Peek returns the anim time at world time w without advancing playback or firing callbacks.
	//
	// Parameters:
	//   - w: the world time in seconds
	//
	// Returns:
	//   - float64: the anim time
	Peek(w float64) float64

	// Epoch returns a counter that increments whenever the anim time is set directly.
	//
	// Returns:
	//   - uint64: the jump counter
	Epoch() uint64

	// Begin returns the start of the playable range.
	Begin() float64

	// End returns the end of the playable range.
	End() float64

	// LoopBegin returns the start of the loop range.
	LoopBegin() float64

	// LoopEnd returns the end of the loop range.
	LoopEnd() float64

	// SetLoopRange replaces the loop range. An empty range loops the whole playable range.
	//
	// Parameters:
	//   - begin, end: the loop range in anim seconds
	SetLoopRange(begin, end float64)

	// Loop reports whether playback wraps at the loop end.
	Loop() bool

	// SetLoop toggles looping.
	//
	// Parameters:
	//   - on: true to loop
	SetLoop(on bool)

	// Speed returns the playback rate multiplier.
	Speed() float64

	// SetSpeed sets the playback rate multiplier.
	//
	// Parameters:
	//   - speed: the multiplier, 1 is real time
	SetSpeed(speed float64)

	// Backwards reports whether playback runs in reverse.
	Backwards() bool

	// SetBackwards sets the playback direction, firing reverse callbacks on change.
	//
	// Parameters:
	//   - on: true to play in reverse
	SetBackwards(on bool)

	// Start resumes playback at world time w. At the range end it restarts from the other end.
	//
	// Parameters:
	//   - w: the world time playback starts at
	Start(w float64)

	// Stop halts playback at world time w, keeping the current anim time.
	//
	// Parameters:
	//   - w: the world time playback stops at
	Stop(w float64)

	// IsStopped reports whether playback is halted.
	IsStopped() bool

	// CurrentAnimTime returns the anim time of the last evaluation.
	CurrentAnimTime() float64

	// SetCurrentAnimTime moves playback to anim time t.
	//
	// Parameters:
	//   - t: the anim time to move to
	//   - jump: true to skip time callbacks between the old and new time
	SetCurrentAnimTime(t float64, jump bool)

	// PlayToTime plays from the current anim time until t and then stops.
	//
	// Parameters:
	//   - t: the anim time to stop at
	//   - w: the world time playback starts at
	PlayToTime(t, w float64)

	// PlayToPercentage plays to a fraction of the playable range.
	//
	// Parameters:
	//   - p: the fraction in [0, 1]
	//   - w: the world time playback starts at
	PlayToPercentage(p, w float64)

	// AddCallback registers a playback listener.
	//
	// Parameters:
	//   - cb: the callback
	AddCallback(cb Callback)

	// ClearCallbacks drops every listener.
	ClearCallbacks()

	// EnableCallbacks toggles callback delivery.
	//
	// Parameters:
	//   - on: false to suppress callbacks
	EnableCallbacks(on bool)
}

var _ Clock = &clock{}

// NewClock creates a stopped clock over [0, 0] at speed 1.
//
// Parameters:
//   - options: functional options to configure the clock
//
// Returns:
//   - Clock: the newly created clock
func NewClock(options ...ClockBuilderOption) Clock {
	c := &clock{
		speed:   1,
		stopped: true,
	}
	for _, option := range options {
		option(c)
	}
	c.initialBegin, c.initialEnd = c.begin, c.end
	c.checkLoop()
	c.stateStart = c.current
	return c
}

// checkLoop falls back to the playable range when the loop range is empty.
func (c *clock) checkLoop() {
	if c.loopBegin == c.loopEnd {
		c.loopBegin, c.loopEnd = c.begin, c.end
	}
}

func (c *clock) Begin() float64     { return c.begin }
func (c *clock) End() float64       { return c.end }
func (c *clock) LoopBegin() float64 { return c.loopBegin }
func (c *clock) LoopEnd() float64   { return c.loopEnd }
func (c *clock) Loop() bool         { return c.loop }
func (c *clock) Speed() float64     { return c.speed }
func (c *clock) Backwards() bool    { return c.backwards }
func (c *clock) IsStopped() bool    { return c.stopped }
func (c *clock) Epoch() uint64      { return c.epoch }

func (c *clock) CurrentAnimTime() float64 {
	return c.current
}

func (c *clock) SetLoopRange(begin, end float64) {
	c.loopBegin, c.loopEnd = begin, end
	c.checkLoop()
}

// step computes the anim time at w from the current state.
// It reports whether playback should stop there and whether the loop wrapped.
func (c *clock) step(w float64) (secs float64, stop, wrapped bool) {
	cur := c.current
	from := c.lastEval
	if from <= c.lastStateChange {
		from = c.lastStateChange
		cur = c.stateStart
	}
	if c.stopped || w <= from {
		return cur, false, false
	}

	del := (w - from) * c.speed
	if c.backwards {
		del = -del
	}
	secs = cur + del
	forwards := del >= 0

	if !c.loop {
		if secs < c.begin || secs > c.end {
			if forwards {
				secs = c.end
			} else {
				secs = c.begin
			}
			stop = true
		}
		return secs, stop, false
	}

	span := c.loopEnd - c.loopBegin
	if forwards {
		if c.stateStart > c.loopEnd {
			if secs > c.end {
				secs, stop = c.end, true
			}
		} else if secs > c.loopEnd {
			if r := math.Mod(secs-c.loopBegin, span) + c.loopBegin; !math.IsNaN(r) {
				secs, wrapped = r, true
			}
		}
	} else {
		if c.stateStart < c.loopBegin {
			if secs < c.begin {
				secs, stop = c.begin, true
			}
		} else if secs < c.loopBegin {
			if r := c.loopEnd - math.Mod(c.loopEnd-secs, span); !math.IsNaN(r) {
				secs, wrapped = r, true
			}
		}
	}

	if c.wrap {
		if (wrapped && forwards && secs >= c.wrapTime) ||
			(wrapped && !forwards && secs <= c.wrapTime) ||
			(forwards && cur < c.wrapTime && secs >= c.wrapTime) ||
			(!forwards && cur > c.wrapTime && secs <= c.wrapTime) {
			secs, stop = c.wrapTime, true
		}
	}
	return secs, stop, wrapped
}

func (c *clock) Peek(w float64) float64 {
	secs, _, _ := c.step(w)
	return secs
}

// Value advances playback to world time w and returns the anim time.
func (c *clock) Value(w float64) float64 {
	if w < c.lastStateChange {
		return c.current
	}
	if c.lastEval <= c.lastStateChange {
		c.lastEval = c.lastStateChange
		c.current = c.stateStart
	}
	if c.stopped || w == c.lastEval {
		c.lastEval = w
		return c.current
	}

	secs, stop, _ := c.step(w)
	if stop {
		c.halt(w, secs)
	}
	c.checkTimeCallbacks(c.current, secs, w)
	c.lastEval = w
	c.current = secs
	return secs
}

func (c *clock) halt(w, animTime float64) {
	if c.stopped {
		return
	}
	c.stopped = true
	if c.needsReset {
		c.resetWrap()
	}
	c.stateChange(w, animTime)
	c.fire(EventStop, w, animTime)
}

func (c *clock) resetWrap() {
	c.begin, c.end = c.initialBegin, c.initialEnd
	c.backwards = false
	c.wrap, c.needsReset = false, false
}

// stateChange records a new playback segment starting at world time w and anim time animTime.
func (c *clock) stateChange(w, animTime float64) {
	if w < c.lastStateChange {
		return
	}
	c.lastStateChange = w
	c.stateStart = animTime
	if c.onChange != nil {
		c.onChange()
	}
}

func (c *clock) now() float64 {
	return math.Max(c.lastEval, c.lastStateChange)
}

func (c *clock) Start(w float64) {
	if !c.stopped && w == c.lastStateChange {
		return
	}
	anim := c.Peek(w)
	c.fire(EventStart, w, anim)
	c.stopped = false
	switch {
	case c.backwards && anim <= c.begin:
		c.stateChange(w, c.end)
	case !c.backwards && anim >= c.end:
		c.stateChange(w, c.begin)
	default:
		c.stateChange(w, anim)
	}
}

func (c *clock) Stop(w float64) {
	if c.stopped {
		return
	}
	c.halt(w, c.Value(w))
}

func (c *clock) SetLoop(on bool) {
	c.loop = on
	c.stateChange(c.now(), c.current)
}

func (c *clock) SetSpeed(speed float64) {
	w := c.now()
	anim := c.Value(w)
	c.speed = speed
	c.stateChange(w, anim)
}

func (c *clock) SetBackwards(on bool) {
	if c.backwards == on {
		return
	}
	w := c.now()
	anim := c.Value(w)
	c.fire(EventReverse, w, anim)
	c.backwards = on
	c.stateChange(w, anim)
}

func (c *clock) SetCurrentAnimTime(t float64, jump bool) {
	w := c.now()
	if !jump {
		c.checkTimeCallbacks(c.current, t, w)
	}
	c.current = t
	c.epoch++
	c.stateChange(w, t)
}

func (c *clock) PlayToTime(t, w float64) {
	c.needsReset = true
	if c.Peek(w) > t {
		if c.loop {
			c.wrapTime = t
			c.wrap = true
		} else {
			c.begin = t
			c.SetBackwards(true)
		}
	} else {
		c.end = t
	}
	c.Start(w)
}

func (c *clock) PlayToPercentage(p, w float64) {
	c.PlayToTime(c.begin+(c.end-c.begin)*p, w)
}

func (c *clock) AddCallback(cb Callback) {
	c.callbacks = append(c.callbacks, &cb)
}

func (c *clock) ClearCallbacks() {
	c.callbacks = nil
}

func (c *clock) EnableCallbacks(on bool) {
	c.callbacksOff = !on
}

// checkTimeCallbacks fires time, begin and end callbacks whose time lies in the frame.
func (c *clock) checkTimeCallbacks(frameStart, frameStop, w float64) {
	for i := len(c.callbacks) - 1; i >= 0; i-- {
		cb := c.callbacks[i]
		var at float64
		switch cb.Event {
		case EventTime:
			at = cb.Time
		case EventBegin:
			at = c.begin
		case EventEnd:
			at = c.end
		default:
			continue
		}
		if c.timeInFrame(at, frameStart, frameStop) {
			c.send(i, w, frameStop)
		}
	}
}

func (c *clock) timeInFrame(secs, start, stop float64) bool {
	if secs == start && secs == stop {
		return true
	}
	if c.backwards {
		if start < stop {
			// wrapped; exclude times outside the loop
			return (secs <= start && secs >= c.loopBegin) || (secs >= stop && secs <= c.loopEnd)
		}
		return secs <= start && secs >= stop
	}
	if start > stop {
		return (secs >= start && secs <= c.loopEnd) || (secs <= stop && secs >= c.loopBegin)
	}
	return secs >= start && secs <= stop
}

func (c *clock) fire(event EventType, w, animTime float64) {
	for i := len(c.callbacks) - 1; i >= 0; i-- {
		if c.callbacks[i].Event == event {
			c.send(i, w, animTime)
		}
	}
}

func (c *clock) send(i int, w, animTime float64) {
	if c.callbacksOff {
		return
	}
	cb := c.callbacks[i]
	if cb.Fn != nil {
		cb.Fn(Event{Type: cb.Event, Name: cb.Name, AnimTime: animTime, WorldTime: w})
	}
	switch {
	case cb.Repeats == 0:
		c.callbacks = append(c.callbacks[:i], c.callbacks[i+1:]...)
	case cb.Repeats > 0:
		cb.Repeats--
	}
}
