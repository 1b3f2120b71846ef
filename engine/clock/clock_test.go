package clock

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ channel.Scalar = NewClock()

func record(c Clock, event EventType, at float64, repeats int) *[]Event {
	var got []Event
	c.AddCallback(Callback{Event: event, Time: at, Repeats: repeats, Fn: func(e Event) {
		got = append(got, e)
	}})
	return &got
}

func TestAdvanceIsLazyAndIdempotent(t *testing.T) {
	c := NewClock(WithRange(0, 2))
	assert.True(t, c.IsStopped())
	assert.Equal(t, 0.0, c.Value(1), "stopped clocks do not advance")

	c = NewClock(WithRange(0, 2))
	c.Start(0)
	assert.InDelta(t, 0.5, c.Value(0.5), 1e-9)
	assert.InDelta(t, 0.5, c.Value(0.5), 1e-9)
	assert.InDelta(t, 1.0, c.Peek(1), 1e-9)
	assert.InDelta(t, 0.5, c.CurrentAnimTime(), 1e-9, "peek has no side effects")
}

func TestClampsAndStopsAtEnd(t *testing.T) {
	c := NewClock(WithRange(0, 2))
	stops := record(c, EventStop, 0, -1)
	ends := record(c, EventEnd, 0, -1)
	c.Start(0)

	assert.InDelta(t, 2.0, c.Value(3), 1e-9)
	assert.True(t, c.IsStopped())
	assert.Len(t, *stops, 1)
	assert.Len(t, *ends, 1)
	assert.InDelta(t, 2.0, c.Value(4), 1e-9)

	c.Start(4)
	assert.False(t, c.IsStopped())
	assert.InDelta(t, 0.5, c.Value(4.5), 1e-9, "starting at the end restarts from the beginning")
}

func TestLoopWrapsAndFiresMarkersAcrossTheSeam(t *testing.T) {
	c := NewClock(WithRange(0, 2), WithLoop(true))
	c.Start(0)
	assert.InDelta(t, 1.5, c.Value(1.5), 1e-9)

	late := record(c, EventTime, 1.9, -1)
	early := record(c, EventTime, 0.25, -1)
	missed := record(c, EventTime, 1.0, -1)
	assert.InDelta(t, 0.5, c.Value(2.5), 1e-9)
	assert.False(t, c.IsStopped())
	assert.Len(t, *late, 1)
	assert.Len(t, *early, 1)
	assert.Empty(t, *missed)
}

func TestLoopRange(t *testing.T) {
	c := NewClock(WithRange(0, 4), WithLoopRange(1, 3), WithLoop(true))
	assert.Equal(t, 1.0, c.LoopBegin())
	assert.Equal(t, 3.0, c.LoopEnd())
	c.Start(0)
	assert.InDelta(t, 1.5, c.Value(3.5), 1e-9)

	empty := NewClock(WithRange(0, 4), WithLoopRange(2, 2))
	assert.Equal(t, 0.0, empty.LoopBegin())
	assert.Equal(t, 4.0, empty.LoopEnd())
}

func TestBackwards(t *testing.T) {
	c := NewClock(WithRange(0, 2), WithInitialTime(2))
	reversed := record(c, EventReverse, 0, -1)
	c.SetBackwards(true)
	c.SetBackwards(true)
	assert.Len(t, *reversed, 1)

	c.Start(0)
	assert.InDelta(t, 1.5, c.Value(0.5), 1e-9)
	assert.InDelta(t, 0.0, c.Value(5), 1e-9)
	assert.True(t, c.IsStopped())
}

func TestSetSpeedKeepsContinuity(t *testing.T) {
	c := NewClock(WithRange(0, 10), WithSpeed(2))
	c.Start(0)
	assert.InDelta(t, 1.0, c.Value(0.5), 1e-9)
	c.SetSpeed(0.5)
	assert.Equal(t, 0.5, c.Speed())
	assert.InDelta(t, 1.5, c.Value(1.5), 1e-9)
}

func TestSetCurrentAnimTime(t *testing.T) {
	c := NewClock(WithRange(0, 10))
	marks := record(c, EventTime, 5, -1)
	c.Start(0)

	c.SetCurrentAnimTime(7, true)
	assert.Equal(t, uint64(1), c.Epoch())
	assert.Empty(t, *marks, "jumps skip callbacks")
	assert.InDelta(t, 8.0, c.Value(1), 1e-9)

	c.SetCurrentAnimTime(3, false)
	assert.Empty(t, *marks)
	c.SetCurrentAnimTime(6, false)
	assert.Len(t, *marks, 1)
	assert.Equal(t, uint64(3), c.Epoch())
}

func TestPlayToTimeForward(t *testing.T) {
	c := NewClock(WithRange(0, 10))
	c.PlayToTime(4, 0)
	assert.InDelta(t, 4.0, c.Value(5), 1e-9)
	assert.True(t, c.IsStopped())
	assert.Equal(t, 10.0, c.End(), "range is restored once the target is reached")
}

func TestPlayToTimeBackward(t *testing.T) {
	c := NewClock(WithRange(0, 10), WithInitialTime(6))
	c.PlayToTime(2, 0)
	assert.True(t, c.Backwards())
	assert.InDelta(t, 2.0, c.Value(10), 1e-9)
	assert.True(t, c.IsStopped())
	assert.False(t, c.Backwards())
	assert.Equal(t, 0.0, c.Begin())
}

func TestPlayToTimeWrapsWhenLooping(t *testing.T) {
	c := NewClock(WithRange(0, 4), WithLoop(true), WithInitialTime(3))
	c.PlayToTime(1, 0)
	assert.InDelta(t, 1.0, c.Value(2.5), 1e-9)
	assert.True(t, c.IsStopped())
}

func TestPlayToPercentage(t *testing.T) {
	c := NewClock(WithRange(0, 10))
	c.PlayToPercentage(0.5, 0)
	assert.InDelta(t, 5.0, c.Value(20), 1e-9)
}

func TestCallbackRepeats(t *testing.T) {
	c := NewClock(WithRange(0, 10))
	once := record(c, EventStart, 0, 0)
	twice := record(c, EventStart, 0, 1)

	for w := 0.0; w < 3; w++ {
		c.Start(w)
		c.Stop(w + 0.5)
	}
	assert.Len(t, *once, 1)
	assert.Len(t, *twice, 2)

	c.ClearCallbacks()
	stops := record(c, EventStop, 0, -1)
	c.EnableCallbacks(false)
	c.Start(4)
	c.Stop(5)
	assert.Empty(t, *stops)
}

func TestStateChangeHookAndAnchor(t *testing.T) {
	changes := 0
	c := NewClock(WithRange(0, 10), WithWorldTime(100), WithStateChangeHook(func() { changes++ }))
	c.Start(100)
	require.Equal(t, 1, changes)
	assert.InDelta(t, 1.0, c.Value(101), 1e-9)
	assert.InDelta(t, 1.0, c.Value(50), 1e-9, "times before the last state change are ignored")
	c.SetLoop(true)
	assert.True(t, c.Loop())
	assert.Equal(t, 2, changes)
}
